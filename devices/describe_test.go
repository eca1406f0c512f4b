package devices

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriber_Describe(t *testing.T) {
	shell := newRecordingShell(clockwork.NewFakeClock())
	shell.output["emulator-5554|getprop ro.product.model"] = "sdk_gphone64_arm64\n"
	shell.output["R58M123|getprop ro.product.model"] = "SM-G973F\n"

	d, err := NewDescriber(shell, nil, 0, 0)
	require.NoError(t, err)

	desc := d.Describe(context.Background(), "emulator-5554")
	assert.Equal(t, Description{Serial: "emulator-5554", Model: "sdk_gphone64_arm64", Type: "emulator"}, desc)
	assert.Equal(t, "sdk_gphone64_arm64 (emulator-5554)", desc.Label())

	all := d.DescribeAll(context.Background(), []string{"R58M123", "emulator-5554"})
	require.Len(t, all, 2)
	assert.Equal(t, "real", all[0].Type)
	assert.Equal(t, "SM-G973F", all[0].Model)

	// emulator-5554 came from the cache
	assert.Len(t, shell.callsFor("emulator-5554"), 1)
}

func TestDescriber_FailureIsNotCached(t *testing.T) {
	shell := newRecordingShell(clockwork.NewFakeClock())
	shell.fail("A", "getprop ro.product.model", errBoom)

	d, err := NewDescriber(shell, nil, 4, 0)
	require.NoError(t, err)

	desc := d.Describe(context.Background(), "A")
	assert.Equal(t, "A", desc.Label())
	d.Describe(context.Background(), "A")

	assert.Len(t, shell.callsFor("A"), 2)
}

func TestDescriber_DropsDevicesLeavingRegistry(t *testing.T) {
	shell := newRecordingShell(clockwork.NewFakeClock())
	registry := NewRegistry()
	registry.ReplaceAll([]string{"A", "B"})

	d, err := NewDescriber(shell, registry, 4, 0)
	require.NoError(t, err)

	d.DescribeAll(context.Background(), []string{"A", "B"})
	registry.Remove("A")
	d.DescribeAll(context.Background(), []string{"A", "B"})

	assert.Len(t, shell.callsFor("A"), 2)
	assert.Len(t, shell.callsFor("B"), 1)
}

// hangingShell never answers until the caller gives up.
type hangingShell struct{}

func (hangingShell) Shell(ctx context.Context, serial, command string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDescriber_UnresponsiveDeviceTimesOut(t *testing.T) {
	d, err := NewDescriber(hangingShell{}, nil, 4, 20*time.Millisecond)
	require.NoError(t, err)

	start := time.Now()
	desc := d.Describe(context.Background(), "emulator-5554")

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, Description{Serial: "emulator-5554", Type: "emulator"}, desc)
}
