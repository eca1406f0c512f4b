package shortcut

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/niftylettuce/frappe/utils"
)

// Hotkey is one registered system-wide key combination.
type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
}

// Factory creates an unregistered hotkey for a parsed shortcut.
type Factory func(Shortcut) (Hotkey, error)

type binding struct {
	accelerator string
	hotkey      Hotkey
	done        chan struct{}
}

// Manager binds accelerators to callbacks.
type Manager struct {
	goos    string
	factory Factory

	mu       sync.Mutex
	bindings []*binding
}

// NewManager returns a manager using the platform hotkey implementation.
func NewManager() *Manager {
	return NewManagerWith(runtime.GOOS, newPlatformHotkey)
}

// NewManagerWith returns a manager creating hotkeys with factory.
func NewManagerWith(goos string, factory Factory) *Manager {
	return &Manager{goos: goos, factory: factory}
}

// Bind registers accelerator and calls fn on every key press until UnbindAll.
// fn runs on its own goroutine.
func (m *Manager) Bind(accelerator string, fn func()) error {
	sc, err := Parse(accelerator, m.goos)
	if err != nil {
		return err
	}

	hk, err := m.factory(sc)
	if err != nil {
		return fmt.Errorf("failed to create shortcut %s: %w", sc, err)
	}

	if err := hk.Register(); err != nil {
		return fmt.Errorf("failed to register shortcut %s: %w", sc, err)
	}

	b := &binding{accelerator: sc.String(), hotkey: hk, done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-b.done:
				return
			case _, ok := <-hk.Keydown():
				if !ok {
					return
				}
				utils.Verbose("Shortcut %s pressed", b.accelerator)
				fn()
			}
		}
	}()

	m.mu.Lock()
	m.bindings = append(m.bindings, b)
	m.mu.Unlock()

	utils.Verbose("Registered shortcut %s", b.accelerator)
	return nil
}

// BindAll binds every accelerator, continuing past failures, and returns the
// joined errors.
func (m *Manager) BindAll(bindings map[string]func()) error {
	var errs []error
	for accelerator, fn := range bindings {
		if err := m.Bind(accelerator, fn); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Bound returns the canonical accelerators currently registered.
func (m *Manager) Bound() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.bindings))
	for _, b := range m.bindings {
		out = append(out, b.accelerator)
	}
	return out
}

// UnbindAll unregisters every shortcut.
func (m *Manager) UnbindAll() {
	m.mu.Lock()
	bindings := m.bindings
	m.bindings = nil
	m.mu.Unlock()

	for _, b := range bindings {
		close(b.done)
		b.hotkey.Unregister()
	}
}
