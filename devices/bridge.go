package devices

import (
	"context"
)

// EventType distinguishes the two device-change notifications.
type EventType string

const (
	DeviceAdded   EventType = "added"
	DeviceRemoved EventType = "removed"
)

// DeviceEvent is one change reported by the adb server's device tracker.
type DeviceEvent struct {
	Type   EventType `json:"type"`
	Serial string    `json:"serial"`
	State  string    `json:"state,omitempty"`
}

// ShellRunner runs a shell command on one device and returns its drained output.
type ShellRunner interface {
	Shell(ctx context.Context, serial, command string) ([]byte, error)
}

// Bridge is the subset of the adb host services the app depends on.
type Bridge interface {
	ShellRunner

	// ListDevices returns the serials of all devices currently known to the adb server.
	ListDevices(ctx context.Context) ([]string, error)

	// TrackDevices opens a device-change stream. The returned channel is closed when
	// the stream ends, either because ctx was cancelled or the connection dropped.
	TrackDevices(ctx context.Context) (<-chan DeviceEvent, error)
}
