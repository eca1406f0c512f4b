// Package notify carries user-facing error notices from the core to whatever surface
// is running: the tray menu, websocket clients, or the log.
package notify

import (
	"sync"
	"time"

	"github.com/niftylettuce/frappe/utils"
)

// Notice is a modal-style message with a title, a one-line message and a detail string.
type Notice struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
	Time    time.Time `json:"time"`
}

// Notifier receives notices. Implementations must not block for long.
type Notifier interface {
	Notify(n Notice)
}

// Func adapts a plain function to a Notifier.
type Func func(n Notice)

func (f Func) Notify(n Notice) {
	f(n)
}

// Multi fans a notice out to every notifier it holds.
type Multi []Notifier

func (m Multi) Notify(n Notice) {
	for _, notifier := range m {
		if notifier != nil {
			notifier.Notify(n)
		}
	}
}

type logNotifier struct{}

// Log returns a notifier that writes notices to the application log.
func Log() Notifier {
	return logNotifier{}
}

func (logNotifier) Notify(n Notice) {
	if n.Detail != "" {
		utils.Warn("%s: %s (%s)", n.Title, n.Message, n.Detail)
		return
	}
	utils.Warn("%s: %s", n.Title, n.Message)
}

// Hub is a notifier whose sinks can be attached after construction,
// e.g. a websocket broadcaster that only exists once the server starts.
type Hub struct {
	mu    sync.RWMutex
	sinks []Notifier
	last  *Notice
}

func NewHub(sinks ...Notifier) *Hub {
	return &Hub{sinks: sinks}
}

// Attach adds a sink for all subsequent notices.
func (h *Hub) Attach(n Notifier) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks = append(h.sinks, n)
}

func (h *Hub) Notify(n Notice) {
	if n.Time.IsZero() {
		n.Time = time.Now()
	}

	h.mu.Lock()
	h.last = &n
	sinks := append([]Notifier(nil), h.sinks...)
	h.mu.Unlock()

	Multi(sinks).Notify(n)
}

// Last returns the most recent notice, if any.
func (h *Hub) Last() (Notice, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return Notice{}, false
	}
	return *h.last, true
}
