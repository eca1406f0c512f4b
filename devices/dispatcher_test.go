package devices

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

var reloadOps = []string{"input keyevent 82", "input keyevent 19", "input keyevent 23"}

func newTestDispatcher(serials ...string) (*Dispatcher, *recordingShell, *noticeRecorder, clockwork.FakeClock) {
	clock := clockwork.NewFakeClockAt(t0)
	shell := newRecordingShell(clock)
	notices := &noticeRecorder{}
	registry := NewRegistry()
	registry.ReplaceAll(serials)

	return NewDispatcher(registry, shell, notices, WithClock(clock)), shell, notices, clock
}

func TestDispatch_ReloadOnOneDevice(t *testing.T) {
	d, shell, notices, clock := newTestDispatcher("emulator-5554")

	done := make(chan error, 1)
	go func() {
		done <- d.DispatchNamed(AllDevices, "Reload", reloadOps)
	}()

	clock.BlockUntil(1)
	clock.Advance(500 * time.Millisecond)
	clock.BlockUntil(1)
	clock.Advance(500 * time.Millisecond)
	require.NoError(t, <-done)

	calls := shell.callsFor("emulator-5554")
	require.Len(t, calls, 3)
	assert.Equal(t, "input keyevent 82", calls[0].Command)
	assert.Equal(t, t0, calls[0].At)
	assert.Equal(t, "input keyevent 19", calls[1].Command)
	assert.Equal(t, t0.Add(500*time.Millisecond), calls[1].At)
	assert.Equal(t, "input keyevent 23", calls[2].Command)
	assert.Equal(t, t0.Add(time.Second), calls[2].At)
	assert.Empty(t, notices.all())
}

func TestDispatch_SingleOperationNeedsNoDelay(t *testing.T) {
	d, shell, notices, _ := newTestDispatcher("A", "B")

	require.NoError(t, d.Dispatch(AllDevices, []string{"input keyevent 82"}))

	assert.Len(t, shell.callsFor("A"), 1)
	assert.Len(t, shell.callsFor("B"), 1)
	assert.Empty(t, notices.all())
}

func TestDispatch_EmptyRegistryIsNoop(t *testing.T) {
	d, shell, notices, _ := newTestDispatcher()

	require.NoError(t, d.Dispatch(AllDevices, reloadOps))

	assert.Equal(t, 0, shell.count())
	assert.Empty(t, notices.all())
}

func TestDispatch_NoOperations(t *testing.T) {
	d, shell, notices, _ := newTestDispatcher("A")

	err := d.Dispatch(AllDevices, nil)

	assert.ErrorIs(t, err, ErrNoOperations)
	assert.Equal(t, 0, shell.count())
	assert.Empty(t, notices.all())
}

func TestDispatch_SingleDeviceTargetIgnoresRegistry(t *testing.T) {
	d, shell, _, _ := newTestDispatcher("A", "B")

	require.NoError(t, d.Dispatch(Device("unregistered"), []string{"input keyevent 82"}))

	assert.Len(t, shell.callsFor("unregistered"), 1)
	assert.Empty(t, shell.callsFor("A"))
	assert.Empty(t, shell.callsFor("B"))
}

func TestDispatch_FailureAbortsOnlyThatChain(t *testing.T) {
	d, shell, notices, clock := newTestDispatcher("X", "Y")
	shell.fail("Y", "input keyevent 19", errBoom)

	done := make(chan error, 1)
	go func() {
		done <- d.DispatchNamed(AllDevices, "Reload", reloadOps)
	}()

	// both chains wait before their second operation, only X waits before the third
	clock.BlockUntil(2)
	clock.Advance(DefaultSettleDelay)
	clock.BlockUntil(1)
	clock.Advance(DefaultSettleDelay)
	err := <-done

	var cmdErr *DeviceCommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, []string{"X", "Y"}, cmdErr.Targets)
	assert.Equal(t, []string{"Y"}, cmdErr.Failed())
	assert.ErrorIs(t, err, errBoom)
	assert.NotEmpty(t, cmdErr.DispatchID)

	assert.Len(t, shell.callsFor("X"), 3)
	y := shell.callsFor("Y")
	require.Len(t, y, 2)
	assert.Equal(t, "input keyevent 19", y[1].Command)

	got := notices.all()
	require.Len(t, got, 1)
	assert.Equal(t, "Reload Error", got[0].Title)
	assert.Equal(t, "There was an error sending the reload command to Y", got[0].Message)
	assert.Contains(t, got[0].Detail, "boom")
}

func TestDispatch_AllFailuresAggregateIntoOneNotice(t *testing.T) {
	d, shell, notices, _ := newTestDispatcher("A", "B", "C")
	shell.fail("A", "input keyevent 82", errBoom)
	shell.fail("C", "input keyevent 82", errors.New("device offline"))

	err := d.DispatchNamed(AllDevices, "Shake", []string{"input keyevent 82"})

	var cmdErr *DeviceCommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, []string{"A", "C"}, cmdErr.Failed())

	got := notices.all()
	require.Len(t, got, 1)
	assert.Equal(t, "Shake Error", got[0].Title)
	assert.Equal(t, "There was an error sending the shake command to A, C", got[0].Message)
	assert.Contains(t, got[0].Detail, "device offline")
}

func TestDispatch_SnapshotIsTakenAtStart(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	shell := newRecordingShell(clock)
	registry := NewRegistry()
	registry.ReplaceAll([]string{"A"})
	d := NewDispatcher(registry, shell, &noticeRecorder{}, WithClock(clock))

	done := make(chan error, 1)
	go func() {
		done <- d.Dispatch(AllDevices, []string{"input keyevent 82", "input keyevent 23"})
	}()

	clock.BlockUntil(1)
	registry.Add("B")
	registry.Remove("A")
	clock.Advance(DefaultSettleDelay)
	require.NoError(t, <-done)

	assert.Len(t, shell.callsFor("A"), 2)
	assert.Empty(t, shell.callsFor("B"))
}

func TestDispatch_OverlappingDispatchesRunBackToBack(t *testing.T) {
	d, shell, _, clock := newTestDispatcher("A")
	ops := []string{"input keyevent 82", "input keyevent 23"}

	first := make(chan error, 1)
	go func() {
		first <- d.Dispatch(AllDevices, ops)
	}()
	clock.BlockUntil(1)

	second := make(chan error, 1)
	go func() {
		second <- d.Dispatch(AllDevices, ops)
	}()

	// the second chain waits for the lock, so only the first is sleeping
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, shell.count())

	clock.Advance(DefaultSettleDelay)
	require.NoError(t, <-first)

	clock.BlockUntil(1)
	clock.Advance(DefaultSettleDelay)
	require.NoError(t, <-second)

	calls := shell.callsFor("A")
	require.Len(t, calls, 4)
	assert.Equal(t, []string{"input keyevent 82", "input keyevent 23", "input keyevent 82", "input keyevent 23"},
		[]string{calls[0].Command, calls[1].Command, calls[2].Command, calls[3].Command})
}

func TestDispatch_ZeroSettleDelay(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	shell := newRecordingShell(clock)
	registry := NewRegistry()
	registry.Add("A")
	d := NewDispatcher(registry, shell, nil, WithClock(clock), WithSettleDelay(0), WithShellTimeout(0))

	require.NoError(t, d.Dispatch(AllDevices, reloadOps))
	assert.Len(t, shell.callsFor("A"), 3)
}

func TestTarget(t *testing.T) {
	assert.True(t, AllDevices.All())
	assert.False(t, AllDevices.IsZero())
	assert.False(t, Target{}.All())
	assert.True(t, Target{}.IsZero())
	assert.False(t, Device("A").All())
	assert.Equal(t, "A", Device("A").Serial())
	assert.Equal(t, "all devices", AllDevices.String())
	assert.Equal(t, "no devices", Target{}.String())
}

func TestDispatcher_ZeroTargetSendsNothing(t *testing.T) {
	clock := clockwork.NewFakeClock()
	shell := newRecordingShell(clock)
	notices := &noticeRecorder{}
	registry := NewRegistry()
	registry.ReplaceAll([]string{"A", "B"})
	d := NewDispatcher(registry, shell, notices, WithClock(clock))

	err := d.Dispatch(Target{}, []string{"input keyevent 82"})

	assert.ErrorIs(t, err, ErrNoTarget)
	assert.Equal(t, 0, shell.count())
	assert.Empty(t, notices.all())
}
