//go:build linux && hotkey

package shortcut

import (
	"golang.design/x/hotkey"
)

// on X11 Mod1 is alt and Mod4 is super
func platformModifiers(sc Shortcut) ([]hotkey.Modifier, error) {
	var mods []hotkey.Modifier
	for _, m := range sc.Modifiers {
		switch m {
		case ModCmd:
			mods = append(mods, hotkey.Mod4)
		case ModCtrl:
			mods = append(mods, hotkey.ModCtrl)
		case ModAlt:
			mods = append(mods, hotkey.Mod1)
		case ModShift:
			mods = append(mods, hotkey.ModShift)
		}
	}
	return mods, nil
}
