//go:build darwin || windows || (linux && hotkey)

package shortcut

import (
	"fmt"

	"golang.design/x/hotkey"
)

// systemHotkey adapts golang.design/x/hotkey to Hotkey.
type systemHotkey struct {
	hk   *hotkey.Hotkey
	down chan struct{}
	stop chan struct{}
}

func newPlatformHotkey(sc Shortcut) (Hotkey, error) {
	mods, err := platformModifiers(sc)
	if err != nil {
		return nil, err
	}

	key, err := platformKey(sc.Key)
	if err != nil {
		return nil, err
	}

	return &systemHotkey{
		hk:   hotkey.New(mods, key),
		down: make(chan struct{}),
		stop: make(chan struct{}),
	}, nil
}

func (h *systemHotkey) Register() error {
	if err := h.hk.Register(); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-h.stop:
				return
			case <-h.hk.Keydown():
				select {
				case h.down <- struct{}{}:
				case <-h.stop:
					return
				}
			}
		}
	}()
	return nil
}

func (h *systemHotkey) Unregister() {
	close(h.stop)
	_ = h.hk.Unregister()
}

func (h *systemHotkey) Keydown() <-chan struct{} {
	return h.down
}

var letterKeys = []hotkey.Key{
	hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE, hotkey.KeyF, hotkey.KeyG,
	hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ, hotkey.KeyK, hotkey.KeyL, hotkey.KeyM, hotkey.KeyN,
	hotkey.KeyO, hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR, hotkey.KeyS, hotkey.KeyT, hotkey.KeyU,
	hotkey.KeyV, hotkey.KeyW, hotkey.KeyX, hotkey.KeyY, hotkey.KeyZ,
}

var digitKeys = []hotkey.Key{
	hotkey.Key0, hotkey.Key1, hotkey.Key2, hotkey.Key3, hotkey.Key4,
	hotkey.Key5, hotkey.Key6, hotkey.Key7, hotkey.Key8, hotkey.Key9,
}

var functionKeyCodes = []hotkey.Key{
	hotkey.KeyF1, hotkey.KeyF2, hotkey.KeyF3, hotkey.KeyF4, hotkey.KeyF5, hotkey.KeyF6,
	hotkey.KeyF7, hotkey.KeyF8, hotkey.KeyF9, hotkey.KeyF10, hotkey.KeyF11, hotkey.KeyF12,
}

func platformKey(key string) (hotkey.Key, error) {
	if n := FunctionKey(key); n > 0 {
		return functionKeyCodes[n-1], nil
	}

	if len(key) == 1 {
		c := key[0]
		switch {
		case c >= 'a' && c <= 'z':
			return letterKeys[c-'a'], nil
		case c >= '0' && c <= '9':
			return digitKeys[c-'0'], nil
		}
	}

	return 0, fmt.Errorf("unsupported key %q", key)
}
