package devices

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/niftylettuce/frappe/utils"
)

// ErrADBNotFound is returned by the exec bridge when no adb binary is available.
var ErrADBNotFound = errors.New("adb binary not found, install Android platform-tools or set [adb] path")

// ExecBridge drives the adb command line client instead of the server socket.
type ExecBridge struct {
	path string
}

// NewExecBridge uses the adb binary at path, or autodetects it when path is empty.
func NewExecBridge(path string) *ExecBridge {
	if path == "" {
		path = FindADB()
	}
	return &ExecBridge{path: path}
}

// Path returns the adb binary the bridge runs.
func (b *ExecBridge) Path() string {
	return b.path
}

func (b *ExecBridge) command(ctx context.Context, args ...string) (*exec.Cmd, error) {
	if b.path == "" {
		return nil, ErrADBNotFound
	}
	utils.Verbose("Running %s %s", b.path, strings.Join(args, " "))
	return exec.CommandContext(ctx, b.path, args...), nil
}

func (b *ExecBridge) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd, err := b.command(ctx, args...)
	if err != nil {
		return nil, err
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("adb %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

func (b *ExecBridge) ListDevices(ctx context.Context) ([]string, error) {
	output, err := b.run(ctx, "devices")
	if err != nil {
		return nil, fmt.Errorf("failed to run 'adb devices': %w", err)
	}
	return parseAdbDevicesOutput(string(output)), nil
}

func (b *ExecBridge) Shell(ctx context.Context, serial, command string) ([]byte, error) {
	output, err := b.run(ctx, "-s", serial, "shell", command)
	if err != nil {
		return nil, fmt.Errorf("failed to run %q on %s: %w", command, serial, err)
	}
	return output, nil
}

// TrackDevices runs `adb track-devices` and decodes the device lists it prints.
// The child is killed when ctx is cancelled.
func (b *ExecBridge) TrackDevices(ctx context.Context) (<-chan DeviceEvent, error) {
	cmd, err := b.command(ctx, "track-devices")
	if err != nil {
		return nil, err
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open adb track-devices output: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	utils.DetachProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start adb track-devices: %w", err)
	}

	events := make(chan DeviceEvent)
	go func() {
		if err := pumpTrackEvents(ctx, stdout, events); err != nil {
			utils.Verbose("adb track-devices ended: %v", err)
		}
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			utils.Verbose("adb track-devices exited: %v %s", err, strings.TrimSpace(stderr.String()))
		}
	}()

	return events, nil
}

// parseAdbDevicesOutput reads the serials from `adb devices` output, skipping the header.
func parseAdbDevicesOutput(output string) []string {
	var serials []string

	lines := strings.Split(output, "\n")
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		parts := strings.Fields(line)
		if len(parts) == 2 {
			serials = append(serials, parts[0])
		}
	}

	return serials
}
