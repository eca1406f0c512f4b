package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/niftylettuce/frappe/commands"
)

// HandlerFunc is the signature for JSON-RPC method handlers
type HandlerFunc func(params json.RawMessage) (interface{}, error)

// rpcError carries a JSON-RPC error code and data back to the transport
type rpcError struct {
	code int
	data interface{}
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("%s: %v", errorMessage(e.code), e.data)
}

func invalidParams(err error) error {
	return &rpcError{code: ErrCodeInvalidParams, data: fmt.Sprintf("invalid parameters: %v", err)}
}

func errorCode(err error) (int, interface{}) {
	var rerr *rpcError
	if errors.As(err, &rerr) {
		return rerr.code, rerr.data
	}
	return ErrCodeServerError, err.Error()
}

func errorMessage(code int) string {
	switch code {
	case ErrCodeParseError:
		return "Parse error"
	case ErrCodeInvalidRequest:
		return "Invalid Request"
	case ErrCodeMethodNotFound:
		return "Method not found"
	case ErrCodeInvalidParams:
		return "Invalid params"
	case ErrCodeInternalError:
		return "Internal error"
	default:
		return "Server error"
	}
}

// unmarshalParams decodes params into v. Missing params leave v untouched.
func unmarshalParams(params json.RawMessage, v interface{}) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return invalidParams(err)
	}
	return nil
}

// result converts a command response into a JSON-RPC result or error
func result(response *commands.CommandResponse) (interface{}, error) {
	if response.Status == "error" {
		if response.Data != nil {
			return nil, &rpcError{code: ErrCodeServerError, data: map[string]interface{}{
				"error":   response.Error,
				"details": response.Data,
			}}
		}
		return nil, &rpcError{code: ErrCodeServerError, data: response.Error}
	}
	return response.Data, nil
}

// methodRegistry returns a map of method names to handler functions
func (s *Server) methodRegistry() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		"devices":         s.handleDevices,
		"devices_refresh": s.handleDevicesRefresh,
		"devices_track":   s.handleDevicesTrack,
		"commands":        s.handleCommands,
		"send":            s.handleSend,
		"dispatch":        s.handleDispatch,
		"server.shutdown": s.handleShutdown,
	}
}

// Execute dispatches a method call using the registry
func (s *Server) Execute(method string, params json.RawMessage) (interface{}, error) {
	handler, exists := s.methods[method]
	if !exists {
		return nil, &rpcError{code: ErrCodeMethodNotFound, data: fmt.Sprintf("Method '%s' not found", method)}
	}

	return handler(params)
}

func (s *Server) handleDevices(params json.RawMessage) (interface{}, error) {
	var req commands.DevicesRequest
	if err := unmarshalParams(params, &req); err != nil {
		return nil, err
	}
	return result(s.ctl.DevicesCommand(s.ctx, req))
}

func (s *Server) handleDevicesRefresh(params json.RawMessage) (interface{}, error) {
	return result(s.ctl.RefreshCommand(s.ctx))
}

func (s *Server) handleDevicesTrack(params json.RawMessage) (interface{}, error) {
	return result(s.ctl.TrackCommand(s.ctx))
}

func (s *Server) handleCommands(params json.RawMessage) (interface{}, error) {
	return result(s.ctl.CommandsCommand())
}

func (s *Server) handleSend(params json.RawMessage) (interface{}, error) {
	var req commands.SendRequest
	if err := unmarshalParams(params, &req); err != nil {
		return nil, err
	}
	return result(s.ctl.SendCommand(req))
}

func (s *Server) handleDispatch(params json.RawMessage) (interface{}, error) {
	var req commands.DispatchRequest
	if err := unmarshalParams(params, &req); err != nil {
		return nil, err
	}
	return result(s.ctl.DispatchCommand(req))
}

func (s *Server) handleShutdown(params json.RawMessage) (interface{}, error) {
	s.requestShutdown()
	return okResponse, nil
}
