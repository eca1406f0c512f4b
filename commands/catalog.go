package commands

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/niftylettuce/frappe/shortcut"
)

// ErrUnknownCommand is returned when a command name is not in the catalog.
var ErrUnknownCommand = errors.New("unknown command")

// ErrDuplicateShortcut is returned when two commands share one shortcut.
var ErrDuplicateShortcut = errors.New("duplicate shortcut")

// Definition is one named command that can be sent to devices.
type Definition struct {
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	MenuLabel  string   `json:"menuLabel"`
	Shortcut   string   `json:"shortcut"`
	Operations []string `json:"operations"`
}

func (d Definition) clone() Definition {
	d.Operations = append([]string(nil), d.Operations...)
	return d
}

const (
	keyMenu       = "input keyevent 82"
	keyDpadUp     = "input keyevent 19"
	keyDpadDown   = "input keyevent 20"
	keyDpadCenter = "input keyevent 23"
)

// KeyEvent returns the shell operation that sends the Android key code.
func KeyEvent(code int) string {
	return "input keyevent " + strconv.Itoa(code)
}

// ExpandOperations turns bare key codes into key event operations and keeps
// everything else as a shell command.
func ExpandOperations(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if code, err := strconv.Atoi(arg); err == nil && code >= 0 {
			out = append(out, KeyEvent(code))
			continue
		}
		out = append(out, arg)
	}
	return out
}

// builtinDefinitions lists the React Native dev menu commands. Shortcuts use
// "mod" for cmd on macOS and ctrl elsewhere.
var builtinDefinitions = []Definition{
	{
		Name:       "shake",
		Title:      "Shake",
		MenuLabel:  "Shake devices",
		Shortcut:   "mod+shift+r",
		Operations: []string{keyMenu},
	},
	{
		Name:       "reload",
		Title:      "Reload",
		MenuLabel:  "Reload JS",
		Shortcut:   "mod+shift+e",
		Operations: []string{keyMenu, keyDpadUp, keyDpadCenter},
	},
	{
		Name:       "debug",
		Title:      "Debug JS",
		MenuLabel:  "Debug JS",
		Shortcut:   "mod+shift+d",
		Operations: []string{keyMenu, keyDpadUp, keyDpadDown, keyDpadCenter},
	},
	{
		Name:       "live-reload",
		Title:      "Live Reload",
		MenuLabel:  "Live Reload",
		Shortcut:   "mod+shift+l",
		Operations: []string{keyMenu, keyDpadUp, keyDpadDown, keyDpadDown, keyDpadCenter},
	},
}

// Catalog is the fixed, ordered set of command definitions for one platform.
type Catalog struct {
	goos        string
	definitions []Definition
	byName      map[string]int
}

// NewCatalog builds the catalog for goos, replacing shortcuts named in overrides.
// An empty goos means the running platform.
func NewCatalog(goos string, overrides map[string]string) *Catalog {
	if goos == "" {
		goos = runtime.GOOS
	}

	modifier := "ctrl"
	if goos == "darwin" {
		modifier = "cmd"
	}

	c := &Catalog{goos: goos, byName: make(map[string]int, len(builtinDefinitions))}
	for i, def := range builtinDefinitions {
		def = def.clone()
		def.Shortcut = modifier + def.Shortcut[len("mod"):]
		if shortcut, ok := overrides[def.Name]; ok {
			def.Shortcut = shortcut
		}
		c.definitions = append(c.definitions, def)
		c.byName[def.Name] = i
	}

	return c
}

// DefinitionFor returns a copy of the named definition.
func (c *Catalog) DefinitionFor(name string) (Definition, error) {
	i, ok := c.byName[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return c.definitions[i].clone(), nil
}

// Definitions returns copies of all definitions in catalog order.
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, 0, len(c.definitions))
	for _, def := range c.definitions {
		out = append(out, def.clone())
	}
	return out
}

// Names returns the command names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.definitions))
	for _, def := range c.definitions {
		out = append(out, def.Name)
	}
	return out
}

// Validate reports commands whose shortcuts resolve to the same key
// combination. Shortcuts that do not parse are left to the shortcut binder.
func (c *Catalog) Validate() error {
	owners := make(map[string]string, len(c.definitions))
	var errs []error

	for _, def := range c.definitions {
		key := strings.ToLower(strings.TrimSpace(def.Shortcut))
		if sc, err := shortcut.Parse(def.Shortcut, c.goos); err == nil {
			key = sc.String()
		}

		if owner, ok := owners[key]; ok {
			errs = append(errs, fmt.Errorf("%w: %s is used by %s and %s", ErrDuplicateShortcut, key, owner, def.Name))
			continue
		}
		owners[key] = def.Name
	}

	return errors.Join(errs...)
}
