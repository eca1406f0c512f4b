package commands

import (
	"fmt"

	"github.com/niftylettuce/frappe/config"
	"github.com/niftylettuce/frappe/devices"
	"github.com/niftylettuce/frappe/notify"
)

// CommandResponse represents a standardized response format for all commands
type CommandResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) *CommandResponse {
	return &CommandResponse{
		Status: "ok",
		Data:   data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err error) *CommandResponse {
	return &CommandResponse{
		Status: "error",
		Error:  err.Error(),
	}
}

// Controller wires the device registry, tracker, dispatcher and catalog
// together. Every surface (tray, CLI, server) drives the app through it.
type Controller struct {
	Config     *config.Config
	Bridge     devices.Bridge
	Registry   *devices.Registry
	Tracker    *devices.Tracker
	Dispatcher *devices.Dispatcher
	Describer  *devices.Describer
	Catalog    *Catalog
	Notices    *notify.Hub
}

// NewBridge returns the adb bridge selected by cfg.
func NewBridge(cfg *config.Config) (devices.Bridge, error) {
	switch cfg.ADB.Transport {
	case config.TransportSocket, "":
		return devices.NewSocketBridge(cfg.ADB.Host, cfg.ADB.Port), nil
	case config.TransportExec:
		return devices.NewExecBridge(cfg.ADB.Path), nil
	default:
		return nil, fmt.Errorf("unknown adb transport: %s", cfg.ADB.Transport)
	}
}

// NewController builds a controller talking to the adb server described by cfg.
// Notices are always logged and also sent to sinks.
func NewController(cfg *config.Config, sinks ...notify.Notifier) (*Controller, error) {
	bridge, err := NewBridge(cfg)
	if err != nil {
		return nil, err
	}
	return NewControllerWithBridge(cfg, bridge, sinks...)
}

// NewControllerWithBridge is NewController with an explicit bridge.
func NewControllerWithBridge(cfg *config.Config, bridge devices.Bridge, sinks ...notify.Notifier) (*Controller, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	catalog := NewCatalog("", cfg.Shortcuts)
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid [shortcuts] config: %w", err)
	}

	hub := notify.NewHub(append([]notify.Notifier{notify.Log()}, sinks...)...)
	registry := devices.NewRegistry()

	describer, err := devices.NewDescriber(bridge, registry, 0, cfg.Dispatch.ShellTimeout)
	if err != nil {
		return nil, err
	}

	return &Controller{
		Config:   cfg,
		Bridge:   bridge,
		Registry: registry,
		Tracker:  devices.NewTracker(bridge, registry, hub),
		Dispatcher: devices.NewDispatcher(registry, bridge, hub,
			devices.WithSettleDelay(cfg.Dispatch.SettleDelay),
			devices.WithShellTimeout(cfg.Dispatch.ShellTimeout),
		),
		Describer: describer,
		Catalog:   catalog,
		Notices:   hub,
	}, nil
}
