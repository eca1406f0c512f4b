package devices

import (
	"sync"

	"github.com/niftylettuce/frappe/utils"
)

// Registry holds the ordered list of connected device serials and notifies
// refresh hooks whenever the list changes.
type Registry struct {
	// changeMu orders mutations together with their hook calls
	changeMu sync.Mutex

	mu      sync.RWMutex
	serials []string
	hooks   []func([]string)
}

// NewRegistry creates an empty device registry
func NewRegistry() *Registry {
	return &Registry{}
}

// OnChange registers a hook called with a snapshot of the list after every change.
// Hooks run synchronously on the goroutine that made the change and see
// snapshots in the order the changes happened. A hook may read the registry
// but must not change it, and should return quickly.
func (r *Registry) OnChange(fn func([]string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// List returns a copy of the serials in insertion order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot()
}

// Len returns the number of devices
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.serials)
}

// Contains reports whether serial is registered
func (r *Registry) Contains(serial string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(serial) >= 0
}

// ReplaceAll replaces the whole list. Duplicates keep their first position.
// Hooks are called even when the content did not change.
func (r *Registry) ReplaceAll(serials []string) {
	r.changeMu.Lock()
	defer r.changeMu.Unlock()

	r.mu.Lock()
	next := make([]string, 0, len(serials))
	seen := make(map[string]bool, len(serials))
	for _, serial := range serials {
		if seen[serial] {
			continue
		}
		seen[serial] = true
		next = append(next, serial)
	}
	r.serials = next
	snapshot, hooks := r.snapshot(), r.hookList()
	r.mu.Unlock()

	utils.Verbose("Device list replaced: %v", snapshot)
	r.fire(hooks, snapshot)
}

// Add appends serial if it is not already present
func (r *Registry) Add(serial string) {
	r.changeMu.Lock()
	defer r.changeMu.Unlock()

	r.mu.Lock()
	if r.indexOf(serial) >= 0 {
		r.mu.Unlock()
		return
	}
	r.serials = append(r.serials, serial)
	snapshot, hooks := r.snapshot(), r.hookList()
	r.mu.Unlock()

	utils.Verbose("Device added: %s", serial)
	r.fire(hooks, snapshot)
}

// Remove deletes serial if it is present
func (r *Registry) Remove(serial string) {
	r.changeMu.Lock()
	defer r.changeMu.Unlock()

	r.mu.Lock()
	i := r.indexOf(serial)
	if i < 0 {
		r.mu.Unlock()
		return
	}
	r.serials = append(r.serials[:i:i], r.serials[i+1:]...)
	snapshot, hooks := r.snapshot(), r.hookList()
	r.mu.Unlock()

	utils.Verbose("Device removed: %s", serial)
	r.fire(hooks, snapshot)
}

func (r *Registry) indexOf(serial string) int {
	for i, s := range r.serials {
		if s == serial {
			return i
		}
	}
	return -1
}

func (r *Registry) snapshot() []string {
	out := make([]string, len(r.serials))
	copy(out, r.serials)
	return out
}

func (r *Registry) hookList() []func([]string) {
	out := make([]func([]string), len(r.hooks))
	copy(out, r.hooks)
	return out
}

func (r *Registry) fire(hooks []func([]string), snapshot []string) {
	for _, hook := range hooks {
		// each hook gets its own copy
		list := make([]string, len(snapshot))
		copy(list, snapshot)
		hook(list)
	}
}
