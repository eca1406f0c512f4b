// Package tray is the menu-bar surface: device submenus per command, global
// shortcuts, icon feedback and update notifications.
package tray

import (
	"context"
	"runtime"
	"sync"

	"fyne.io/systray"
	"github.com/jonboulle/clockwork"

	"github.com/niftylettuce/frappe/commands"
	"github.com/niftylettuce/frappe/devices"
	"github.com/niftylettuce/frappe/notify"
	"github.com/niftylettuce/frappe/shortcut"
	"github.com/niftylettuce/frappe/utils"
)

// App runs the tray icon and its menu on top of a Controller.
type App struct {
	ctl       *commands.Controller
	version   string
	goos      string
	shortcuts *shortcut.Manager
	updates   *UpdateChecker
	flicker   *Flicker

	ctx    context.Context
	cancel context.CancelFunc

	// refreshes coalesces re-render requests for the refresh loop
	refreshes chan struct{}

	mu         sync.Mutex
	lastNotice *notify.Notice
	update     *Update
	rendered   Menu
	items      []*systray.MenuItem
	children   [][]*systray.MenuItem
}

func NewApp(ctl *commands.Controller, version string) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		ctl:       ctl,
		version:   version,
		goos:      runtime.GOOS,
		shortcuts: shortcut.NewManager(),
		ctx:       ctx,
		cancel:    cancel,
		refreshes: make(chan struct{}, 1),
	}
	a.flicker = NewFlicker(clockwork.NewRealClock(), a.setIcon, a.restingIcon)
	a.updates = NewUpdateChecker(version, ctl.Notices, a.onUpdate)
	return a
}

// Run shows the tray icon and blocks until the user quits. It must be called
// from the main goroutine.
func (a *App) Run() {
	systray.Run(a.onReady, a.onExit)
}

// Quit removes the tray icon, which makes Run return.
func (a *App) Quit() {
	systray.Quit()
}

func (a *App) onReady() {
	a.setIcon(IconIdle)

	menu := a.buildMenu()
	a.createItems(menu)
	a.apply(menu)

	go a.refreshLoop()
	a.ctl.Registry.OnChange(func([]string) { a.requestRefresh() })
	a.ctl.Tracker.OnStateChange(func(bool) { a.requestRefresh() })
	a.ctl.Notices.Attach(notify.Func(a.onNotice))

	a.bindShortcuts()

	go func() {
		_ = a.ctl.Tracker.Reconcile(a.ctx)
		_ = a.ctl.Tracker.Subscribe(a.ctx)
	}()

	if a.ctl.Config.Tray.UpdateCheck {
		go a.updates.Run(a.ctx)
	}

	utils.Info("Frappe %s is running in the menu bar", a.version)
}

func (a *App) onExit() {
	a.shortcuts.UnbindAll()
	a.cancel()
	a.ctl.Tracker.Stop()
	utils.Verbose("Tray exited")
}

func (a *App) bindShortcuts() {
	bindings := make(map[string]func())
	for _, def := range a.ctl.Catalog.Definitions() {
		name := def.Name
		bindings[def.Shortcut] = func() { a.send(name, devices.AllDevices) }
	}

	if err := a.shortcuts.BindAll(bindings); err != nil {
		utils.Warn("Some shortcuts were not registered: %v", err)
	}
}

func (a *App) state() State {
	a.mu.Lock()
	lastNotice, update := a.lastNotice, a.update
	a.mu.Unlock()

	return State{
		Version:    a.version,
		Commands:   a.ctl.Catalog.Definitions(),
		Devices:    a.ctl.Describer.DescribeAll(a.ctx, a.ctl.Registry.List()),
		MaxDevices: a.ctl.Config.Tray.MaxDevices,
		Tracking:   a.ctl.Tracker.Tracking(),
		LastNotice: lastNotice,
		Update:     update,
	}
}

func (a *App) buildMenu() Menu {
	return BuildMenu(a.state())
}

// createItems adds one native item per slot of menu and starts their click loops.
func (a *App) createItems(menu Menu) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.items = make([]*systray.MenuItem, len(menu.Items))
	a.children = make([][]*systray.MenuItem, len(menu.Items))

	for i, item := range menu.Items {
		if item.IsSeparator() {
			systray.AddSeparator()
			continue
		}

		mi := systray.AddMenuItem(item.Title, item.Tooltip)
		a.items[i] = mi
		go a.listen(mi, i, -1)

		for j, child := range item.Children {
			sub := mi.AddSubMenuItem(child.Title, child.Tooltip)
			a.children[i] = append(a.children[i], sub)
			go a.listen(sub, i, j)
		}
	}
}

func (a *App) listen(mi *systray.MenuItem, i, j int) {
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-mi.ClickedCh:
			a.mu.Lock()
			item := a.rendered.Items[i]
			if j >= 0 {
				item = item.Children[j]
			}
			a.mu.Unlock()

			a.handle(item)
		}
	}
}

// requestRefresh schedules a re-render without waiting for it. Rendering
// describes devices over adb, which must not hold up the caller.
func (a *App) requestRefresh() {
	select {
	case a.refreshes <- struct{}{}:
	default:
	}
}

func (a *App) refreshLoop() {
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.refreshes:
			a.refresh()
		}
	}
}

func (a *App) refresh() {
	a.apply(a.buildMenu())
}

// apply pushes menu into the native items created by createItems.
func (a *App) apply(menu Menu) {
	a.mu.Lock()
	a.rendered = menu
	systray.SetTooltip(menu.Tooltip)

	for i, item := range menu.Items {
		if i >= len(a.items) || a.items[i] == nil {
			continue
		}
		applyItem(a.items[i], item)

		for j, child := range item.Children {
			if j < len(a.children[i]) {
				applyItem(a.children[i][j], child)
			}
		}
	}
	a.mu.Unlock()

	// a running flicker restores the resting icon when it ends
	if !a.flicker.Running() {
		a.setIcon(a.restingIcon())
	}
}

func applyItem(mi *systray.MenuItem, item Item) {
	mi.SetTitle(item.Title)
	mi.SetTooltip(item.Tooltip)

	if item.Enabled {
		mi.Enable()
	} else {
		mi.Disable()
	}

	if item.Visible {
		mi.Show()
	} else {
		mi.Hide()
	}
}

func (a *App) handle(item Item) {
	switch item.Action {
	case ActionSend:
		target, ok := SendTarget(item, a.ctl.Registry.Contains)
		if !ok {
			utils.Verbose("Ignoring click on stale %q entry %q", item.Command, item.Title)
			return
		}
		a.send(item.Command, target)
	case ActionRefresh:
		_ = a.ctl.Tracker.Reconcile(a.ctx)
	case ActionRetryTracking:
		_ = a.ctl.Tracker.Subscribe(a.ctx)
	case ActionShowError:
		// clicking the error entry dismisses it
		a.mu.Lock()
		a.lastNotice = nil
		a.mu.Unlock()
		a.requestRefresh()
	case ActionUpdate:
		a.open(item.Tooltip)
	case ActionDonate:
		a.open(DonateURL)
	case ActionGitHub:
		a.open(GitHubURL)
	case ActionQuit:
		a.Quit()
	}
}

// send flickers the icon and dispatches the named command in the background.
// Failures reach the user through the notice hub.
func (a *App) send(name string, target devices.Target) {
	a.flicker.Start()
	go func() {
		resp := a.ctl.SendCommand(commands.SendRequest{Command: name, DeviceID: target.Serial()})
		if resp.Status == "error" {
			utils.Verbose("Sending %s to %s failed: %s", name, target, resp.Error)
		}
	}()
}

func (a *App) open(url string) {
	if err := utils.OpenURL(url); err != nil {
		utils.Warn("Failed to open %s: %v", url, err)
	}
}

func (a *App) onNotice(n notify.Notice) {
	a.mu.Lock()
	a.lastNotice = &n
	a.mu.Unlock()
	a.requestRefresh()
}

func (a *App) onUpdate(u Update) {
	a.mu.Lock()
	a.update = &u
	a.mu.Unlock()
	a.requestRefresh()
}

func (a *App) restingIcon() Icon {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.rendered.Active {
		return IconActive
	}
	return IconIdle
}

func (a *App) setIcon(icon Icon) {
	if a.goos == "darwin" {
		systray.SetTemplateIcon(iconBytes(icon, a.goos), iconBytes(icon, a.goos))
		return
	}
	systray.SetIcon(iconBytes(icon, a.goos))
}
