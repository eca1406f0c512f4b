package devices

import (
	"errors"
	"fmt"
	"strings"

	"github.com/niftylettuce/frappe/notify"
)

// ErrNoOperations is returned when a dispatch is asked to send nothing.
var ErrNoOperations = errors.New("no operations to dispatch")

// ErrNoTarget is returned when a dispatch is given the zero Target.
var ErrNoTarget = errors.New("no dispatch target")

// SubscriptionError is reported when the device-change stream cannot be
// established or stops while the tracker is still running.
type SubscriptionError struct {
	Err error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("failed to track devices: %v", e.Err)
}

func (e *SubscriptionError) Unwrap() error {
	return e.Err
}

func (e *SubscriptionError) Notice() notify.Notice {
	return notify.Notice{
		Title:   "Tracking Error",
		Message: "There was an error tracking the devices",
		Detail:  errString(e.Err),
	}
}

// ListError is reported when a full device listing fails.
type ListError struct {
	Err error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("failed to list devices: %v", e.Err)
}

func (e *ListError) Unwrap() error {
	return e.Err
}

func (e *ListError) Notice() notify.Notice {
	return notify.Notice{
		Title:   "Refresh Error",
		Message: "There was an error refreshing the devices",
		Detail:  errString(e.Err),
	}
}

// DeviceFailure is the first error one device hit during a dispatch.
type DeviceFailure struct {
	Serial    string
	Operation string
	Err       error
}

func (f DeviceFailure) Error() string {
	return fmt.Sprintf("%s: %q: %v", f.Serial, f.Operation, f.Err)
}

func (f DeviceFailure) Unwrap() error {
	return f.Err
}

// DeviceCommandError aggregates every per-device failure of one dispatch.
type DeviceCommandError struct {
	DispatchID string
	Title      string
	Targets    []string
	Failures   []DeviceFailure
}

// Failed returns the serials of the devices that failed, in target order.
func (e *DeviceCommandError) Failed() []string {
	out := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Serial)
	}
	return out
}

func (e *DeviceCommandError) Error() string {
	return fmt.Sprintf("failed to send %s command to %s", e.commandName(), strings.Join(e.Failed(), ", "))
}

func (e *DeviceCommandError) Unwrap() error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

func (e *DeviceCommandError) Notice() notify.Notice {
	title := e.Title
	if title == "" {
		title = "Command"
	}

	detail := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		detail = append(detail, f.Error())
	}

	return notify.Notice{
		Title:   title + " Error",
		Message: fmt.Sprintf("There was an error sending the %s command to %s", e.commandName(), strings.Join(e.Failed(), ", ")),
		Detail:  strings.Join(detail, "\n"),
	}
}

func (e *DeviceCommandError) commandName() string {
	if e.Title == "" {
		return "device"
	}
	return strings.ToLower(e.Title)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
