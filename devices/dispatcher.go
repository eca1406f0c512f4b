package devices

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/niftylettuce/frappe/notify"
	"github.com/niftylettuce/frappe/utils"
)

const (
	DefaultSettleDelay  = 500 * time.Millisecond
	DefaultShellTimeout = 10 * time.Second
)

// Target selects the devices a dispatch is sent to. The zero value selects
// nothing and is rejected with ErrNoTarget.
type Target struct {
	serial string
	all    bool
}

// AllDevices targets every device in the registry at the time of the dispatch.
var AllDevices = Target{all: true}

// Device targets exactly one device, whether or not it is registered.
func Device(serial string) Target {
	return Target{serial: serial}
}

// All reports whether t selects every registered device.
func (t Target) All() bool {
	return t.all
}

// IsZero reports whether t selects nothing.
func (t Target) IsZero() bool {
	return !t.all && t.serial == ""
}

// Serial returns the single targeted serial, or "" for AllDevices.
func (t Target) Serial() string {
	return t.serial
}

func (t Target) String() string {
	switch {
	case t.all:
		return "all devices"
	case t.serial == "":
		return "no devices"
	}
	return t.serial
}

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithClock replaces the clock used for settle delays.
func WithClock(clock clockwork.Clock) DispatcherOption {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

// WithSettleDelay sets the pause between consecutive operations on one device.
func WithSettleDelay(delay time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.settle = delay
	}
}

// WithShellTimeout bounds every shell call. Zero disables the bound.
func WithShellTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// Dispatcher sends ordered shell operations to devices, one chain per device,
// with a settle delay between consecutive operations.
type Dispatcher struct {
	registry *Registry
	shell    ShellRunner
	notifier notify.Notifier
	clock    clockwork.Clock
	settle   time.Duration
	timeout  time.Duration

	// serial -> *sync.Mutex; overlapping dispatches to one device run back to back
	locks sync.Map
}

func NewDispatcher(registry *Registry, shell ShellRunner, notifier notify.Notifier, opts ...DispatcherOption) *Dispatcher {
	if notifier == nil {
		notifier = notify.Log()
	}

	d := &Dispatcher{
		registry: registry,
		shell:    shell,
		notifier: notifier,
		clock:    clockwork.NewRealClock(),
		settle:   DefaultSettleDelay,
		timeout:  DefaultShellTimeout,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Dispatch sends operations to every device selected by target.
func (d *Dispatcher) Dispatch(target Target, operations []string) error {
	return d.DispatchNamed(target, "", operations)
}

// DispatchNamed is Dispatch with a command title used in the error notice.
// It blocks until every device chain has finished. If any chain failed, a single
// DeviceCommandError is reported to the notifier and returned.
func (d *Dispatcher) DispatchNamed(target Target, title string, operations []string) error {
	if len(operations) == 0 {
		return ErrNoOperations
	}
	if target.IsZero() {
		return ErrNoTarget
	}

	var serials []string
	if target.All() {
		serials = d.registry.List()
	} else {
		serials = []string{target.Serial()}
	}

	if len(serials) == 0 {
		utils.Verbose("No devices to send %q to", title)
		return nil
	}

	ops := make([]string, len(operations))
	copy(ops, operations)

	id := uuid.New().String()
	utils.Verbose("Dispatch %s: sending %d operation(s) to %v", id, len(ops), serials)

	failures := make([]*DeviceFailure, len(serials))
	var wg sync.WaitGroup
	for i, serial := range serials {
		wg.Add(1)
		go func(i int, serial string) {
			defer wg.Done()
			failures[i] = d.runChain(id, serial, ops)
		}(i, serial)
	}
	wg.Wait()

	cmdErr := &DeviceCommandError{
		DispatchID: id,
		Title:      title,
		Targets:    serials,
	}
	for _, f := range failures {
		if f != nil {
			cmdErr.Failures = append(cmdErr.Failures, *f)
		}
	}

	if len(cmdErr.Failures) == 0 {
		utils.Verbose("Dispatch %s: done", id)
		return nil
	}

	d.notifier.Notify(cmdErr.Notice())
	return cmdErr
}

func (d *Dispatcher) runChain(id, serial string, ops []string) *DeviceFailure {
	lock := d.lockFor(serial)
	lock.Lock()
	defer lock.Unlock()

	for i, op := range ops {
		if i > 0 && d.settle > 0 {
			<-d.clock.After(d.settle)
		}

		if err := d.send(serial, op); err != nil {
			utils.Verbose("Dispatch %s: %s failed on %q: %v", id, serial, op, err)
			return &DeviceFailure{Serial: serial, Operation: op, Err: err}
		}
	}

	return nil
}

func (d *Dispatcher) send(serial, op string) error {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	output, err := d.shell.Shell(ctx, serial, op)
	if err != nil {
		return err
	}

	if len(output) > 0 {
		utils.Verbose("%s: %s: %s", serial, op, output)
	}
	return nil
}

func (d *Dispatcher) lockFor(serial string) *sync.Mutex {
	lock, _ := d.locks.LoadOrStore(serial, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
