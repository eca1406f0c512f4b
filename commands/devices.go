package commands

import (
	"context"
)

// DevicesRequest represents the parameters for a devices command
type DevicesRequest struct {
	// Refresh reloads the list from the adb server before answering
	Refresh bool `json:"refresh"`
}

// DeviceList is the payload of the devices commands
type DeviceList struct {
	Devices  []DeviceEntry `json:"devices"`
	Tracking bool          `json:"tracking"`
}

type DeviceEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

func (c *Controller) deviceList(ctx context.Context) DeviceList {
	list := DeviceList{
		Devices:  []DeviceEntry{},
		Tracking: c.Tracker.Tracking(),
	}

	for _, desc := range c.Describer.DescribeAll(ctx, c.Registry.List()) {
		list.Devices = append(list.Devices, DeviceEntry{
			ID:    desc.Serial,
			Name:  desc.Model,
			Type:  desc.Type,
			Label: desc.Label(),
		})
	}

	return list
}

// DevicesCommand lists the registered devices
func (c *Controller) DevicesCommand(ctx context.Context, req DevicesRequest) *CommandResponse {
	if req.Refresh {
		if err := c.Tracker.Reconcile(ctx); err != nil {
			return NewErrorResponse(err)
		}
	}

	return NewSuccessResponse(c.deviceList(ctx))
}

// RefreshCommand replaces the registry with a full listing from the adb server
func (c *Controller) RefreshCommand(ctx context.Context) *CommandResponse {
	return c.DevicesCommand(ctx, DevicesRequest{Refresh: true})
}

// TrackCommand starts tracking device changes, unless already tracking.
// The stream lives as long as ctx.
func (c *Controller) TrackCommand(ctx context.Context) *CommandResponse {
	if err := c.Tracker.Subscribe(ctx); err != nil {
		return NewErrorResponse(err)
	}

	return NewSuccessResponse(c.deviceList(ctx))
}
