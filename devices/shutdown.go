package devices

import (
	"errors"
	"fmt"
	"sync"

	"github.com/niftylettuce/frappe/utils"
)

// ShutdownHook runs cleanup functions when the process is asked to stop
// (SIGINT/SIGTERM): stopping device tracking, releasing global shortcuts,
// closing the JSON-RPC server.
type ShutdownHook struct {
	mu    sync.Mutex
	hooks []namedHook
	done  bool
}

type namedHook struct {
	name string
	fn   func() error
}

func NewShutdownHook() *ShutdownHook {
	return &ShutdownHook{}
}

// Register adds a cleanup function. Hooks run in reverse registration order,
// so resources are released before the things they depend on.
func (s *ShutdownHook) Register(name string, cleanupFn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, namedHook{name: name, fn: cleanupFn})
	utils.Verbose("Registered shutdown hook: %s", name)
}

// Shutdown runs every registered hook once, even when some fail.
// Later calls do nothing.
func (s *ShutdownHook) Shutdown() error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil
	}
	s.done = true
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	if len(hooks) == 0 {
		return nil
	}

	utils.Verbose("Executing %d shutdown hook(s)", len(hooks))
	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		utils.Verbose("Running shutdown hook: %s", hook.name)
		if err := hook.fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", hook.name, err))
			utils.Warn("Shutdown hook %s failed: %v", hook.name, err)
		}
	}

	return errors.Join(errs...)
}

// Count returns the number of hooks still pending.
func (s *ShutdownHook) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hooks)
}
