package devices

import (
	"context"
	"errors"
	"sync"

	"github.com/niftylettuce/frappe/notify"
	"github.com/niftylettuce/frappe/utils"
)

var errTrackingStopped = errors.New("device tracking stopped")

// Tracker keeps a Registry in sync with the adb server, either through the
// live device-change stream or a full listing.
type Tracker struct {
	bridge   Bridge
	registry *Registry
	notifier notify.Notifier

	mu       sync.Mutex
	tracking bool
	cancel   context.CancelFunc
	done     chan struct{}
	hooks    []func(bool)
}

func NewTracker(bridge Bridge, registry *Registry, notifier notify.Notifier) *Tracker {
	if notifier == nil {
		notifier = notify.Log()
	}
	return &Tracker{
		bridge:   bridge,
		registry: registry,
		notifier: notifier,
	}
}

// OnStateChange registers a hook called whenever tracking starts or stops.
func (t *Tracker) OnStateChange(fn func(tracking bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, fn)
}

// Tracking reports whether the device-change stream is currently active.
func (t *Tracker) Tracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tracking
}

// Subscribe opens the device-change stream and applies its events to the registry
// until ctx is cancelled, Stop is called, or the stream ends. Calling it while a
// stream is active does nothing. Failures are reported to the notifier and returned.
func (t *Tracker) Subscribe(ctx context.Context) error {
	t.mu.Lock()
	if t.tracking {
		t.mu.Unlock()
		return nil
	}

	streamCtx, cancel := context.WithCancel(ctx)
	events, err := t.bridge.TrackDevices(streamCtx)
	if err != nil {
		t.mu.Unlock()
		cancel()
		subErr := &SubscriptionError{Err: err}
		t.notifier.Notify(subErr.Notice())
		return subErr
	}

	done := make(chan struct{})
	t.tracking = true
	t.cancel = cancel
	t.done = done
	hooks := append([]func(bool){}, t.hooks...)
	t.mu.Unlock()

	utils.Verbose("Device tracking started")
	for _, hook := range hooks {
		hook(true)
	}

	go t.consume(streamCtx, events, done)
	return nil
}

func (t *Tracker) consume(ctx context.Context, events <-chan DeviceEvent, done chan struct{}) {
	defer close(done)

	for event := range events {
		t.apply(event)
	}
	stopped := ctx.Err() != nil

	t.mu.Lock()
	t.tracking = false
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	hooks := append([]func(bool){}, t.hooks...)
	t.mu.Unlock()

	utils.Verbose("Device tracking stopped")
	for _, hook := range hooks {
		hook(false)
	}

	if !stopped {
		subErr := &SubscriptionError{Err: errTrackingStopped}
		t.notifier.Notify(subErr.Notice())
	}
}

func (t *Tracker) apply(event DeviceEvent) {
	switch event.Type {
	case DeviceAdded:
		if !t.registry.Contains(event.Serial) {
			t.registry.Add(event.Serial)
		}
	case DeviceRemoved:
		if t.registry.Contains(event.Serial) {
			t.registry.Remove(event.Serial)
		}
	default:
		utils.Verbose("Ignoring unknown device event %q for %s", event.Type, event.Serial)
	}
}

// Stop cancels the device-change stream and waits for the consumer to exit.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// Reconcile replaces the registry with a full listing from the adb server.
// On failure the registry is left unchanged.
func (t *Tracker) Reconcile(ctx context.Context) error {
	serials, err := t.bridge.ListDevices(ctx)
	if err != nil {
		listErr := &ListError{Err: err}
		t.notifier.Notify(listErr.Notice())
		return listErr
	}

	t.registry.ReplaceAll(serials)
	return nil
}
