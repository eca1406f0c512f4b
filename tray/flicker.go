package tray

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const flickerStep = 150 * time.Millisecond

// flickerSequence is shown one step apart after the initial shaken icon;
// the resting icon follows the last step.
var flickerSequence = []Icon{IconActive, IconShaken}

// Flicker animates the tray icon while a command is sent and then restores
// the resting icon. Starting a new flicker cancels the one in progress.
type Flicker struct {
	clock   clockwork.Clock
	set     func(Icon)
	resting func() Icon

	mu   sync.Mutex
	stop chan struct{}
}

func NewFlicker(clock clockwork.Clock, set func(Icon), resting func() Icon) *Flicker {
	return &Flicker{clock: clock, set: set, resting: resting}
}

func (f *Flicker) Start() {
	f.mu.Lock()
	if f.stop != nil {
		close(f.stop)
	}
	stop := make(chan struct{})
	f.stop = stop
	f.set(IconShaken)
	f.mu.Unlock()

	go f.run(stop)
}

func (f *Flicker) run(stop chan struct{}) {
	for i := 0; i <= len(flickerSequence); i++ {
		timer := f.clock.NewTimer(flickerStep)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.Chan():
		}

		f.mu.Lock()
		if f.stop != stop {
			f.mu.Unlock()
			return
		}
		if i < len(flickerSequence) {
			f.set(flickerSequence[i])
		} else {
			f.set(f.resting())
			f.stop = nil
		}
		f.mu.Unlock()
	}
}

// Running reports whether a flicker is in progress.
func (f *Flicker) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stop != nil
}
