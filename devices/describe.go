package devices

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/niftylettuce/frappe/utils"
)

const defaultDescriberSize = 64

// Description is the human-facing identity of a device.
type Description struct {
	Serial string `json:"serial"`
	Model  string `json:"model,omitempty"`
	Type   string `json:"type"`
}

// Label returns "Model (serial)" when the model is known, otherwise the serial.
func (d Description) Label() string {
	if d.Model == "" {
		return d.Serial
	}
	return fmt.Sprintf("%s (%s)", d.Model, d.Serial)
}

// DeviceType classifies a serial as "emulator" or "real".
func DeviceType(serial string) string {
	if strings.HasPrefix(serial, "emulator-") {
		return "emulator"
	}
	return "real"
}

// Describer resolves device model names and caches them per serial.
type Describer struct {
	shell   ShellRunner
	timeout time.Duration
	cache   *lru.Cache[string, Description]
}

// NewDescriber creates a describer whose device queries give up after
// timeout (DefaultShellTimeout when zero). When registry is non-nil, cache
// entries for devices that leave the registry are dropped.
func NewDescriber(shell ShellRunner, registry *Registry, size int, timeout time.Duration) (*Describer, error) {
	if size <= 0 {
		size = defaultDescriberSize
	}
	if timeout <= 0 {
		timeout = DefaultShellTimeout
	}

	cache, err := lru.New[string, Description](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create device cache: %w", err)
	}

	d := &Describer{shell: shell, timeout: timeout, cache: cache}
	if registry != nil {
		registry.OnChange(d.retain)
	}
	return d, nil
}

// Describe returns the cached description of serial, querying the device on a miss.
// A device that cannot be queried is described by its serial alone and not cached.
func (d *Describer) Describe(ctx context.Context, serial string) Description {
	if desc, ok := d.cache.Get(serial); ok {
		return desc
	}

	desc := Description{Serial: serial, Type: DeviceType(serial)}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	output, err := d.shell.Shell(ctx, serial, "getprop ro.product.model")
	if err != nil {
		utils.Verbose("Failed to read model of %s: %v", serial, err)
		return desc
	}

	desc.Model = strings.TrimSpace(string(output))
	d.cache.Add(serial, desc)
	return desc
}

// DescribeAll describes serials in order.
func (d *Describer) DescribeAll(ctx context.Context, serials []string) []Description {
	out := make([]Description, 0, len(serials))
	for _, serial := range serials {
		out = append(out, d.Describe(ctx, serial))
	}
	return out
}

func (d *Describer) retain(serials []string) {
	present := make(map[string]bool, len(serials))
	for _, serial := range serials {
		present[serial] = true
	}

	for _, serial := range d.cache.Keys() {
		if !present[serial] {
			d.cache.Remove(serial)
		}
	}
}
