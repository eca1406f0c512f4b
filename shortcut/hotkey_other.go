//go:build !darwin && !windows && !(linux && hotkey)

package shortcut

import (
	"fmt"
	"runtime"
)

func newPlatformHotkey(sc Shortcut) (Hotkey, error) {
	if runtime.GOOS == "linux" {
		// the X11 backend opens the display at init, which fails without one
		return nil, fmt.Errorf("%w: build with -tags hotkey for X11 support", ErrUnavailable)
	}
	return nil, fmt.Errorf("%w on %s", ErrUnavailable, runtime.GOOS)
}
