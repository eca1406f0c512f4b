package shortcut

import (
	"golang.design/x/hotkey"
)

func platformModifiers(sc Shortcut) ([]hotkey.Modifier, error) {
	var mods []hotkey.Modifier
	for _, m := range sc.Modifiers {
		switch m {
		case ModCmd:
			mods = append(mods, hotkey.ModCmd)
		case ModCtrl:
			mods = append(mods, hotkey.ModCtrl)
		case ModAlt:
			mods = append(mods, hotkey.ModOption)
		case ModShift:
			mods = append(mods, hotkey.ModShift)
		}
	}
	return mods, nil
}
