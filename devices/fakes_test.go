package devices

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/niftylettuce/frappe/notify"
)

type shellCall struct {
	Serial  string
	Command string
	At      time.Time
}

// recordingShell records every call with the clock time it was made at and
// fails the calls listed in failOn ("serial|command").
type recordingShell struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	calls  []shellCall
	failOn map[string]error
	output map[string]string
}

func newRecordingShell(clock clockwork.Clock) *recordingShell {
	return &recordingShell{
		clock:  clock,
		failOn: make(map[string]error),
		output: make(map[string]string),
	}
}

func (s *recordingShell) fail(serial, command string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[serial+"|"+command] = err
}

func (s *recordingShell) Shell(ctx context.Context, serial, command string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, shellCall{Serial: serial, Command: command, At: s.clock.Now()})
	if err, ok := s.failOn[serial+"|"+command]; ok {
		return nil, err
	}
	return []byte(s.output[serial+"|"+command]), nil
}

func (s *recordingShell) callsFor(serial string) []shellCall {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []shellCall
	for _, c := range s.calls {
		if c.Serial == serial {
			out = append(out, c)
		}
	}
	return out
}

func (s *recordingShell) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// fakeBridge serves a fixed listing and hands out a channel the test feeds.
type fakeBridge struct {
	*recordingShell

	mu       sync.Mutex
	list     []string
	listErr  error
	trackErr error
	events   chan DeviceEvent
	opened   int
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{recordingShell: newRecordingShell(clockwork.NewRealClock())}
}

func (b *fakeBridge) ListDevices(ctx context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]string(nil), b.list...), nil
}

func (b *fakeBridge) TrackDevices(ctx context.Context) (<-chan DeviceEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.trackErr != nil {
		return nil, b.trackErr
	}

	b.opened++
	in := make(chan DeviceEvent)
	out := make(chan DeviceEvent)
	b.events = in

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (b *fakeBridge) stream() chan DeviceEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.events
}

// noticeRecorder collects notices.
type noticeRecorder struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (r *noticeRecorder) Notify(n notify.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *noticeRecorder) all() []notify.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notice(nil), r.notices...)
}

var errBoom = errors.New("boom")
