package commands

import (
	"errors"
	"fmt"

	"github.com/niftylettuce/frappe/devices"
)

// SendRequest represents the parameters for sending a catalog command
type SendRequest struct {
	Command  string `json:"command"`
	DeviceID string `json:"deviceId,omitempty"`
}

// DispatchRequest represents the parameters for sending raw shell operations
type DispatchRequest struct {
	DeviceID   string   `json:"deviceId,omitempty"`
	Operations []string `json:"operations"`
}

// DispatchResult is the payload returned after a dispatch
type DispatchResult struct {
	Command string   `json:"command,omitempty"`
	Devices []string `json:"devices"`
}

// DispatchFailure is the payload returned when some devices failed
type DispatchFailure struct {
	DispatchID string            `json:"dispatchId"`
	Targets    []string          `json:"targets"`
	Failed     map[string]string `json:"failed"`
}

func target(deviceID string) devices.Target {
	if deviceID == "" {
		return devices.AllDevices
	}
	return devices.Device(deviceID)
}

func (c *Controller) targets(deviceID string) []string {
	if deviceID == "" {
		return c.Registry.List()
	}
	return []string{deviceID}
}

func dispatchResponse(err error, result DispatchResult) *CommandResponse {
	if err == nil {
		return NewSuccessResponse(result)
	}

	resp := NewErrorResponse(err)
	var cmdErr *devices.DeviceCommandError
	if errors.As(err, &cmdErr) {
		failure := DispatchFailure{
			DispatchID: cmdErr.DispatchID,
			Targets:    cmdErr.Targets,
			Failed:     make(map[string]string, len(cmdErr.Failures)),
		}
		for _, f := range cmdErr.Failures {
			failure.Failed[f.Serial] = f.Err.Error()
		}
		resp.Data = failure
	}
	return resp
}

// SendCommand sends a catalog command to one device, or to all devices when
// DeviceID is empty. It blocks until every device has finished.
func (c *Controller) SendCommand(req SendRequest) *CommandResponse {
	if req.Command == "" {
		return NewErrorResponse(fmt.Errorf("command is required"))
	}

	def, err := c.Catalog.DefinitionFor(req.Command)
	if err != nil {
		return NewErrorResponse(err)
	}

	result := DispatchResult{Command: def.Name, Devices: c.targets(req.DeviceID)}
	err = c.Dispatcher.DispatchNamed(target(req.DeviceID), def.Title, def.Operations)
	return dispatchResponse(err, result)
}

// DispatchCommand sends raw shell operations in order with the settle delay
// between them. Bare key codes are sent as key events.
func (c *Controller) DispatchCommand(req DispatchRequest) *CommandResponse {
	if len(req.Operations) == 0 {
		return NewErrorResponse(devices.ErrNoOperations)
	}

	result := DispatchResult{Devices: c.targets(req.DeviceID)}
	err := c.Dispatcher.Dispatch(target(req.DeviceID), ExpandOperations(req.Operations))
	return dispatchResponse(err, result)
}

// CommandsCommand lists the catalog
func (c *Controller) CommandsCommand() *CommandResponse {
	return NewSuccessResponse(map[string]interface{}{
		"commands": c.Catalog.Definitions(),
	})
}
