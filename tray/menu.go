package tray

import (
	"fmt"

	"github.com/niftylettuce/frappe/commands"
	"github.com/niftylettuce/frappe/devices"
	"github.com/niftylettuce/frappe/notify"
)

const (
	DonateURL = "https://donorbox.org/frappe"
	GitHubURL = "https://github.com/niftylettuce/frappe"
)

// Action identifies what a menu item does when clicked.
type Action int

const (
	ActionNone Action = iota
	ActionSend
	ActionRefresh
	ActionRetryTracking
	ActionShowError
	ActionUpdate
	ActionDonate
	ActionGitHub
	ActionQuit
)

// Item is one menu entry. Hidden items keep their slot so the native menu
// can be updated in place.
type Item struct {
	Title    string
	Tooltip  string
	Enabled  bool
	Visible  bool
	Action   Action
	Command  string
	Target   devices.Target
	Children []Item
}

// State is everything the menu is rendered from.
type State struct {
	Version    string
	Commands   []commands.Definition
	Devices    []devices.Description
	MaxDevices int
	Tracking   bool
	LastNotice *notify.Notice
	Update     *Update
}

// Menu is the rendered menu in display order. Separators are items with an
// empty title and ActionNone.
type Menu struct {
	Tooltip string
	Active  bool
	Items   []Item
}

func versionString(version string) string {
	return fmt.Sprintf("Frappe v%s by @niftylettuce", version)
}

// BuildMenu renders state into a menu with a fixed shape: every command has
// a submenu of MaxDevices+1 slots regardless of how many devices exist.
func BuildMenu(state State) Menu {
	header := versionString(state.Version)
	menu := Menu{
		Tooltip: header,
		Active:  len(state.Devices) > 0,
	}

	menu.Items = append(menu.Items,
		Item{Title: header, Visible: true},
		separator(),
	)

	for _, def := range state.Commands {
		menu.Items = append(menu.Items, Item{
			Title:    def.MenuLabel,
			Enabled:  true,
			Visible:  true,
			Children: deviceSlots(def, state.Devices, state.MaxDevices),
		})
	}

	menu.Items = append(menu.Items,
		Item{Title: "Refresh devices", Enabled: true, Visible: true, Action: ActionRefresh},
		Item{Title: "Retry device tracking", Enabled: true, Visible: !state.Tracking, Action: ActionRetryTracking},
	)

	errorItem := Item{Enabled: true, Action: ActionShowError}
	if state.LastNotice != nil {
		errorItem.Title = fmt.Sprintf("%s: %s", state.LastNotice.Title, state.LastNotice.Message)
		errorItem.Tooltip = state.LastNotice.Detail
		errorItem.Visible = true
		menu.Tooltip = fmt.Sprintf("%s\n%s", header, errorItem.Title)
	}

	updateItem := Item{Enabled: true, Action: ActionUpdate}
	if state.Update != nil {
		updateItem.Title = fmt.Sprintf("Update available: v%s...", state.Update.Version)
		updateItem.Tooltip = state.Update.URL
		updateItem.Visible = true
	}

	menu.Items = append(menu.Items,
		errorItem,
		updateItem,
		separator(),
		Item{Title: "Donate...", Enabled: true, Visible: true, Action: ActionDonate, Tooltip: DonateURL},
		Item{Title: "View on GitHub...", Enabled: true, Visible: true, Action: ActionGitHub, Tooltip: GitHubURL},
		separator(),
		Item{Title: "Quit Frappe", Enabled: true, Visible: true, Action: ActionQuit},
	)

	return menu
}

func separator() Item {
	return Item{Visible: true}
}

// IsSeparator reports whether the item is a separator.
func (i Item) IsSeparator() bool {
	return i.Title == "" && i.Action == ActionNone && len(i.Children) == 0 && i.Visible
}

func deviceSlots(def commands.Definition, list []devices.Description, max int) []Item {
	slots := make([]Item, max+1)

	if len(list) == 0 {
		slots[0] = Item{Title: "No devices connected", Visible: true}
		return slots
	}

	slots[0] = Item{
		Title:   "All",
		Tooltip: def.Shortcut,
		Enabled: true,
		Visible: true,
		Action:  ActionSend,
		Command: def.Name,
		Target:  devices.AllDevices,
	}

	for i := 0; i < max; i++ {
		if i >= len(list) {
			// unused slot, hidden until a device fills it
			continue
		}
		slots[i+1] = Item{
			Title:   list[i].Label(),
			Tooltip: list[i].Serial,
			Enabled: true,
			Visible: true,
			Action:  ActionSend,
			Command: def.Name,
			Target:  devices.Device(list[i].Serial),
		}
	}

	return slots
}

// SendTarget returns the target a click on item dispatches to. Clicks on
// hidden or disabled items, and on devices that have since disconnected,
// send nothing.
func SendTarget(item Item, present func(serial string) bool) (devices.Target, bool) {
	if item.Action != ActionSend || !item.Visible || !item.Enabled || item.Target.IsZero() {
		return devices.Target{}, false
	}
	if !item.Target.All() && !present(item.Target.Serial()) {
		return devices.Target{}, false
	}
	return item.Target, true
}
