// Package shortcut parses accelerator strings such as "cmd+shift+r" and binds
// them as system-wide hotkeys.
package shortcut

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Modifier names in canonical order.
const (
	ModCmd   = "cmd"
	ModCtrl  = "ctrl"
	ModAlt   = "alt"
	ModShift = "shift"
)

var modifierOrder = []string{ModCmd, ModCtrl, ModAlt, ModShift}

var modifierAliases = map[string]string{
	"cmd":     ModCmd,
	"command": ModCmd,
	"super":   ModCmd,
	"meta":    ModCmd,
	"win":     ModCmd,
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"shift":   ModShift,
}

// ErrInvalidShortcut is wrapped by every parse error.
var ErrInvalidShortcut = errors.New("invalid shortcut")

// ErrUnavailable is returned when this build has no global shortcut support.
var ErrUnavailable = errors.New("global shortcuts are not available")

// Shortcut is a parsed accelerator: a set of modifiers and one key.
type Shortcut struct {
	Modifiers []string
	Key       string
}

// Parse reads an accelerator like "cmd+shift+r" or "Ctrl+Alt+F5". Keys are
// letters, digits and F1 to F12. "CmdOrCtrl" resolves to cmd on darwin and
// ctrl elsewhere, based on goos.
func Parse(s, goos string) (Shortcut, error) {
	if strings.TrimSpace(s) == "" {
		return Shortcut{}, fmt.Errorf("%w: empty", ErrInvalidShortcut)
	}

	mods := make(map[string]bool)
	var key string

	for _, part := range strings.Split(s, "+") {
		token := strings.ToLower(strings.TrimSpace(part))
		if token == "" {
			return Shortcut{}, fmt.Errorf("%w: %q has an empty part", ErrInvalidShortcut, s)
		}

		if token == "cmdorctrl" || token == "commandorcontrol" {
			token = ModCtrl
			if goos == "darwin" {
				token = ModCmd
			}
		}

		if mod, ok := modifierAliases[token]; ok {
			if mods[mod] {
				return Shortcut{}, fmt.Errorf("%w: %q repeats %s", ErrInvalidShortcut, s, mod)
			}
			mods[mod] = true
			continue
		}

		if !isKey(token) {
			return Shortcut{}, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidShortcut, token, s)
		}
		if key != "" {
			return Shortcut{}, fmt.Errorf("%w: %q has more than one key", ErrInvalidShortcut, s)
		}
		key = token
	}

	if key == "" {
		return Shortcut{}, fmt.Errorf("%w: %q has no key", ErrInvalidShortcut, s)
	}
	if len(mods) == 0 {
		return Shortcut{}, fmt.Errorf("%w: %q needs at least one modifier", ErrInvalidShortcut, s)
	}

	sc := Shortcut{Key: key}
	for _, mod := range modifierOrder {
		if mods[mod] {
			sc.Modifiers = append(sc.Modifiers, mod)
		}
	}
	return sc, nil
}

func isKey(token string) bool {
	if len(token) == 1 {
		c := token[0]
		return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
	}
	return FunctionKey(token) > 0
}

// FunctionKey returns n for "fN" with N between 1 and 12, otherwise 0.
func FunctionKey(key string) int {
	if len(key) < 2 || key[0] != 'f' {
		return 0
	}
	n, err := strconv.Atoi(key[1:])
	if err != nil || n < 1 || n > 12 {
		return 0
	}
	return n
}

// Has reports whether the shortcut uses mod.
func (s Shortcut) Has(mod string) bool {
	for _, m := range s.Modifiers {
		if m == mod {
			return true
		}
	}
	return false
}

func (s Shortcut) String() string {
	return strings.Join(append(append([]string(nil), s.Modifiers...), s.Key), "+")
}
