package commands

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niftylettuce/frappe/config"
	"github.com/niftylettuce/frappe/devices"
	"github.com/niftylettuce/frappe/notify"
)

type stubBridge struct {
	mu      sync.Mutex
	list    []string
	listErr error
	failOn  map[string]bool
	calls   []string
	models  map[string]string
	events  chan devices.DeviceEvent
}

func (b *stubBridge) ListDevices(ctx context.Context) ([]string, error) {
	return b.list, b.listErr
}

func (b *stubBridge) TrackDevices(ctx context.Context) (<-chan devices.DeviceEvent, error) {
	if b.events == nil {
		return nil, errors.New("tracking unavailable")
	}
	return b.events, nil
}

func (b *stubBridge) Shell(ctx context.Context, serial, command string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if command == "getprop ro.product.model" {
		return []byte(b.models[serial] + "\n"), nil
	}

	b.calls = append(b.calls, serial+": "+command)
	if b.failOn[serial] {
		return nil, errors.New("device offline")
	}
	return nil, nil
}

type noticeSink struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (s *noticeSink) Notify(n notify.Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
}

func (s *noticeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notices)
}

func newTestController(t *testing.T, bridge *stubBridge) (*Controller, *noticeSink) {
	t.Helper()

	cfg := config.Default()
	cfg.Dispatch.SettleDelay = time.Millisecond

	sink := &noticeSink{}
	ctl, err := NewControllerWithBridge(cfg, bridge, sink)
	require.NoError(t, err)
	return ctl, sink
}

func TestController_Devices(t *testing.T) {
	bridge := &stubBridge{
		list:   []string{"emulator-5554", "R58M123"},
		models: map[string]string{"emulator-5554": "sdk_gphone64", "R58M123": "SM-G973F"},
	}
	ctl, _ := newTestController(t, bridge)

	resp := ctl.DevicesCommand(context.Background(), DevicesRequest{})
	require.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Data.(DeviceList).Devices)

	resp = ctl.RefreshCommand(context.Background())
	require.Equal(t, "ok", resp.Status)

	list := resp.Data.(DeviceList)
	require.Len(t, list.Devices, 2)
	assert.Equal(t, DeviceEntry{ID: "emulator-5554", Name: "sdk_gphone64", Type: "emulator", Label: "sdk_gphone64 (emulator-5554)"}, list.Devices[0])
	assert.Equal(t, "real", list.Devices[1].Type)
	assert.False(t, list.Tracking)
}

func TestController_RefreshError(t *testing.T) {
	bridge := &stubBridge{listErr: errors.New("connection refused")}
	ctl, sink := newTestController(t, bridge)

	resp := ctl.RefreshCommand(context.Background())

	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "connection refused")
	assert.Equal(t, 1, sink.count())
	last, ok := ctl.Notices.Last()
	require.True(t, ok)
	assert.Equal(t, "Refresh Error", last.Title)
}

func TestController_Track(t *testing.T) {
	bridge := &stubBridge{events: make(chan devices.DeviceEvent)}
	ctl, _ := newTestController(t, bridge)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp := ctl.TrackCommand(ctx)
	require.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.(DeviceList).Tracking)

	bridge.events <- devices.DeviceEvent{Type: devices.DeviceAdded, Serial: "A"}
	assert.Eventually(t, func() bool {
		return ctl.Registry.Contains("A")
	}, time.Second, 5*time.Millisecond)
}

func TestController_TrackError(t *testing.T) {
	ctl, _ := newTestController(t, &stubBridge{})

	resp := ctl.TrackCommand(context.Background())

	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "tracking unavailable")
}

func TestController_Send(t *testing.T) {
	bridge := &stubBridge{}
	ctl, sink := newTestController(t, bridge)
	ctl.Registry.ReplaceAll([]string{"emulator-5554"})

	resp := ctl.SendCommand(SendRequest{Command: "reload"})

	require.Equal(t, "ok", resp.Status, resp.Error)
	assert.Equal(t, DispatchResult{Command: "reload", Devices: []string{"emulator-5554"}}, resp.Data)
	assert.Equal(t, []string{
		"emulator-5554: input keyevent 82",
		"emulator-5554: input keyevent 19",
		"emulator-5554: input keyevent 23",
	}, bridge.calls)
	assert.Equal(t, 0, sink.count())
}

func TestController_SendValidation(t *testing.T) {
	ctl, _ := newTestController(t, &stubBridge{})

	resp := ctl.SendCommand(SendRequest{})
	assert.Equal(t, "command is required", resp.Error)

	resp = ctl.SendCommand(SendRequest{Command: "explode"})
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "unknown command")
}

func TestController_SendPartialFailure(t *testing.T) {
	bridge := &stubBridge{failOn: map[string]bool{"Y": true}}
	ctl, sink := newTestController(t, bridge)
	ctl.Registry.ReplaceAll([]string{"X", "Y"})

	resp := ctl.SendCommand(SendRequest{Command: "shake"})

	require.Equal(t, "error", resp.Status)
	failure, ok := resp.Data.(DispatchFailure)
	require.True(t, ok)
	assert.Equal(t, []string{"X", "Y"}, failure.Targets)
	assert.Equal(t, map[string]string{"Y": "device offline"}, failure.Failed)
	assert.Equal(t, 1, sink.count())
}

func TestController_Dispatch(t *testing.T) {
	bridge := &stubBridge{}
	ctl, _ := newTestController(t, bridge)

	resp := ctl.DispatchCommand(DispatchRequest{DeviceID: "A", Operations: []string{"input keyevent 82", "input keyevent 4"}})
	require.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"A: input keyevent 82", "A: input keyevent 4"}, bridge.calls)

	resp = ctl.DispatchCommand(DispatchRequest{DeviceID: "A"})
	assert.Equal(t, "error", resp.Status)
}

func TestController_DispatchKeyCodes(t *testing.T) {
	bridge := &stubBridge{}
	ctl, _ := newTestController(t, bridge)

	resp := ctl.DispatchCommand(DispatchRequest{DeviceID: "A", Operations: []string{"82", "23"}})
	require.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"A: input keyevent 82", "A: input keyevent 23"}, bridge.calls)
}

func TestController_Commands(t *testing.T) {
	ctl, _ := newTestController(t, &stubBridge{})

	resp := ctl.CommandsCommand()

	data := resp.Data.(map[string]interface{})
	assert.Len(t, data["commands"], 4)
}

func TestNewBridge(t *testing.T) {
	cfg := config.Default()

	bridge, err := NewBridge(cfg)
	require.NoError(t, err)
	assert.IsType(t, &devices.SocketBridge{}, bridge)

	cfg.ADB.Transport = config.TransportExec
	cfg.ADB.Path = "/opt/adb"
	bridge, err = NewBridge(cfg)
	require.NoError(t, err)
	assert.Equal(t, "/opt/adb", bridge.(*devices.ExecBridge).Path())

	cfg.ADB.Transport = "usb"
	_, err = NewBridge(cfg)
	assert.Error(t, err)
}

func TestNewControllerWithBridge_NilConfig(t *testing.T) {
	t.Setenv("ANDROID_ADB_SERVER_PORT", "99999")

	ctl, err := NewControllerWithBridge(nil, &stubBridge{})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultADBPort, ctl.Config.ADB.Port)
}

func TestNewControllerWithBridge_DuplicateShortcuts(t *testing.T) {
	cfg := config.Default()
	cfg.Shortcuts = map[string]string{"debug": "ctrl+shift+r", "shake": "ctrl+shift+r"}

	_, err := NewControllerWithBridge(cfg, &stubBridge{})
	assert.ErrorIs(t, err, ErrDuplicateShortcut)
}

func TestParseOSRelease(t *testing.T) {
	data := "NAME=\"Ubuntu\"\nPRETTY_NAME=\"Ubuntu 24.04 LTS\"\nID=ubuntu\n"
	assert.Equal(t, "Ubuntu 24.04 LTS", parseOSRelease(data))
	assert.Equal(t, "", parseOSRelease("ID=alpine\n"))
}

func TestDoctorCommand(t *testing.T) {
	cfg := config.Default()
	// nothing listens on port 1, so the adb server check fails fast
	cfg.ADB.Port = 1
	cfg.Server.Listen = "127.0.0.1:0"

	resp := DoctorCommand(context.Background(), "1.2.3", cfg, "/tmp/frappe.ini")
	require.Equal(t, "ok", resp.Status)

	info := resp.Data.(DoctorInfo)
	assert.Equal(t, "1.2.3", info.FrappeVersion)
	assert.Equal(t, "/tmp/frappe.ini", info.ConfigPath)
	assert.Equal(t, "127.0.0.1:1", info.ADBServer)
	assert.NotEmpty(t, info.ADBServerError)
	assert.Zero(t, info.ADBServerVersion)
	assert.True(t, info.ServerListenFree)
}
