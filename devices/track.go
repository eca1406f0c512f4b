package devices

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/niftylettuce/frappe/utils"
)

// maxTrackPayload guards against garbage on the stream being read as a huge length
const maxTrackPayload = 1 << 20

// trackedDevice is one "serial<TAB>state" line of a device list.
type trackedDevice struct {
	Serial string
	State  string
}

// readTrackMessage reads one length-prefixed device list: four hex digits followed by the payload.
func readTrackMessage(r *bufio.Reader) (string, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return "", err
	}

	length, err := strconv.ParseUint(string(header), 16, 32)
	if err != nil {
		return "", fmt.Errorf("invalid track-devices length %q: %w", string(header), err)
	}

	if length > maxTrackPayload {
		return "", fmt.Errorf("track-devices payload too large: %d bytes", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return "", err
	}

	return string(payload), nil
}

// parseDeviceList parses the payload of a device list, keeping the server's order.
func parseDeviceList(payload string) []trackedDevice {
	var list []trackedDevice
	seen := make(map[string]bool)

	for _, line := range strings.Split(payload, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || seen[fields[0]] {
			continue
		}

		seen[fields[0]] = true
		list = append(list, trackedDevice{Serial: fields[0], State: fields[1]})
	}

	return list
}

// diffDeviceLists turns two consecutive snapshots into removal and addition events.
func diffDeviceLists(prev, next []trackedDevice) []DeviceEvent {
	var events []DeviceEvent

	present := make(map[string]bool, len(next))
	for _, d := range next {
		present[d.Serial] = true
	}

	for _, d := range prev {
		if !present[d.Serial] {
			events = append(events, DeviceEvent{Type: DeviceRemoved, Serial: d.Serial, State: d.State})
		}
	}

	before := make(map[string]bool, len(prev))
	for _, d := range prev {
		before[d.Serial] = true
	}

	for _, d := range next {
		if !before[d.Serial] {
			events = append(events, DeviceEvent{Type: DeviceAdded, Serial: d.Serial, State: d.State})
		}
	}

	return events
}

// pumpTrackEvents decodes device lists from r until it fails or ctx is done,
// emitting the difference between consecutive lists on out. out is closed on return.
func pumpTrackEvents(ctx context.Context, r io.Reader, out chan<- DeviceEvent) error {
	defer close(out)

	reader := bufio.NewReader(r)
	var prev []trackedDevice

	for {
		payload, err := readTrackMessage(reader)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("device tracking stream closed")
			}
			return err
		}

		next := parseDeviceList(payload)
		for _, event := range diffDeviceLists(prev, next) {
			utils.Verbose("Device %s %s (%s)", event.Serial, event.Type, event.State)
			select {
			case out <- event:
			case <-ctx.Done():
				return nil
			}
		}
		prev = next
	}
}
