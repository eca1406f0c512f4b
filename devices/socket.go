package devices

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/electricbubble/gadb"

	"github.com/niftylettuce/frappe/utils"
)

const (
	DefaultADBHost = "127.0.0.1"
	DefaultADBPort = 5037
)

// SocketBridge talks to the adb server over its TCP socket.
type SocketBridge struct {
	host string
	port int
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewSocketBridge(host string, port int) *SocketBridge {
	if host == "" {
		host = DefaultADBHost
	}
	if port == 0 {
		port = DefaultADBPort
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return &SocketBridge{host: host, port: port, dial: dialer.DialContext}
}

// Addr returns the adb server address in host:port form.
func (b *SocketBridge) Addr() string {
	return net.JoinHostPort(b.host, strconv.Itoa(b.port))
}

func (b *SocketBridge) client() (gadb.Client, error) {
	client, err := gadb.NewClientWith(b.host, b.port)
	if err != nil {
		return gadb.Client{}, fmt.Errorf("failed to connect to adb server at %s: %w", b.Addr(), err)
	}
	return client, nil
}

// ServerVersion returns the adb server's protocol version.
func (b *SocketBridge) ServerVersion(ctx context.Context) (int, error) {
	return withContext(ctx, func() (int, error) {
		client, err := b.client()
		if err != nil {
			return 0, err
		}
		return client.ServerVersion()
	})
}

func (b *SocketBridge) ListDevices(ctx context.Context) ([]string, error) {
	return withContext(ctx, func() ([]string, error) {
		client, err := b.client()
		if err != nil {
			return nil, err
		}

		serials, err := client.DeviceSerialList()
		if err != nil {
			return nil, fmt.Errorf("failed to list devices: %w", err)
		}
		return serials, nil
	})
}

func (b *SocketBridge) Shell(ctx context.Context, serial, command string) ([]byte, error) {
	return withContext(ctx, func() ([]byte, error) {
		client, err := b.client()
		if err != nil {
			return nil, err
		}

		list, err := client.DeviceList()
		if err != nil {
			return nil, fmt.Errorf("failed to list devices: %w", err)
		}

		for _, device := range list {
			if device.Serial() != serial {
				continue
			}

			output, err := device.RunShellCommand(command)
			if err != nil {
				return nil, fmt.Errorf("failed to run %q on %s: %w", command, serial, err)
			}
			return []byte(output), nil
		}

		return nil, fmt.Errorf("device %s not found", serial)
	})
}

// TrackDevices opens the host:track-devices service on a dedicated connection.
func (b *SocketBridge) TrackDevices(ctx context.Context) (<-chan DeviceEvent, error) {
	conn, err := b.dial(ctx, "tcp", b.Addr())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to adb server at %s: %w", b.Addr(), err)
	}

	reader := bufio.NewReader(conn)
	if err := sendHostRequest(conn, reader, "host:track-devices"); err != nil {
		_ = conn.Close()
		return nil, err
	}

	events := make(chan DeviceEvent)
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go func() {
		if err := pumpTrackEvents(ctx, reader, events); err != nil {
			utils.Verbose("Device tracking on %s ended: %v", b.Addr(), err)
		}
		_ = conn.Close()
	}()

	return events, nil
}

// sendHostRequest writes a length-prefixed host service request and reads the
// OKAY/FAIL status that follows.
func sendHostRequest(w io.Writer, r *bufio.Reader, request string) error {
	if _, err := fmt.Fprintf(w, "%04x%s", len(request), request); err != nil {
		return fmt.Errorf("failed to send %s: %w", request, err)
	}

	status := make([]byte, 4)
	if _, err := io.ReadFull(r, status); err != nil {
		return fmt.Errorf("failed to read %s status: %w", request, err)
	}

	switch string(status) {
	case "OKAY":
		return nil
	case "FAIL":
		message, err := readTrackMessage(r)
		if err != nil {
			return fmt.Errorf("%s failed", request)
		}
		return fmt.Errorf("%s failed: %s", request, message)
	default:
		return fmt.Errorf("unexpected %s status %q", request, string(status))
	}
}

type result[T any] struct {
	value T
	err   error
}

// withContext runs a blocking call that has no context support and gives up
// waiting once ctx is done. The call itself keeps running until it returns.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	ch := make(chan result[T], 1)
	go func() {
		value, err := fn()
		ch <- result[T]{value: value, err: err}
	}()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
