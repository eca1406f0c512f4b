package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/niftylettuce/frappe/commands"
	"github.com/niftylettuce/frappe/utils"
)

const (
	// Parse error: Invalid JSON was received by the server
	ErrCodeParseError = -32700

	// Invalid Request: The JSON sent is not a valid Request object
	ErrCodeInvalidRequest = -32600

	// Method not found: The method does not exist / is not available
	ErrCodeMethodNotFound = -32601

	// Server error: Internal JSON-RPC error
	ErrCodeServerError = -32000

	// Invalid params: Invalid method parameters
	ErrCodeInvalidParams = -32602

	// Internal error: Internal JSON-RPC error
	ErrCodeInternalError = -32603
)

// Server timeouts
const (
	ReadTimeout     = 10 * time.Second
	WriteTimeout    = 60 * time.Second
	IdleTimeout     = 120 * time.Second
	ShutdownTimeout = 5 * time.Second
)

var okResponse = map[string]interface{}{"status": "ok"}

type JSONRPCRequest struct {
	// these fields are all omitempty, so we can report back to client if they are missing
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// JSONRPCNotification is a server-initiated message without an id
type JSONRPCNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Server exposes a Controller over JSON-RPC on /rpc and /ws.
type Server struct {
	ctl        *commands.Controller
	enableCORS bool
	methods    map[string]HandlerFunc
	hub        *wsHub

	// devicesChanged coalesces registry changes for the broadcaster
	devicesChanged chan struct{}

	// ctx outlives single requests, device tracking started over rpc is bound to it
	ctx    context.Context
	cancel context.CancelFunc

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// New creates a server for ctl and subscribes websocket clients to device
// list changes and notices.
func New(ctl *commands.Controller, enableCORS bool) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		ctl:        ctl,
		enableCORS: enableCORS,
		hub:        newWSHub(),
		ctx:        ctx,
		cancel:     cancel,
		shutdownCh: make(chan struct{}),

		devicesChanged: make(chan struct{}, 1),
	}
	s.methods = s.methodRegistry()

	// describing devices talks to them, so it never runs on the registry's goroutine
	ctl.Registry.OnChange(func([]string) {
		select {
		case s.devicesChanged <- struct{}{}:
		default:
		}
	})
	ctl.Notices.Attach(s.hub)
	go s.broadcastDeviceChanges()

	return s
}

// broadcastDeviceChanges pushes the current device list to websocket
// clients after registry changes. Changes that arrive while a broadcast is
// being prepared are folded into one more broadcast.
func (s *Server) broadcastDeviceChanges() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.devicesChanged:
			if s.hub.count() == 0 {
				continue
			}
			s.hub.broadcast("devices_changed", s.ctl.DevicesCommand(s.ctx, commands.DevicesRequest{}).Data)
		}
	}
}

// corsMiddleware handles CORS preflight requests and adds CORS headers to responses.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the HTTP handler serving the banner, /rpc and /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", sendBanner)
	mux.HandleFunc("/rpc", s.handleJSONRPC)
	mux.HandleFunc("/ws", s.handleWebSocket)

	var handler http.Handler = mux
	if s.enableCORS {
		handler = corsMiddleware(mux)
	}
	return handler
}

// ListenAndServe serves on addr until ctx is cancelled or a client calls
// server.shutdown, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	addr, err := utils.NormalizeListenAddr(addr)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Info("Starting server on http://%s...", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	case <-s.shutdownCh:
		utils.Info("Shutdown requested")
	}

	s.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// Close stops device tracking started through the server and disconnects websocket clients.
func (s *Server) Close() {
	s.cancel()
	s.hub.closeAll()
}

// requestShutdown asks ListenAndServe to stop. Safe to call more than once.
func (s *Server) requestShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownCh)
	})
}

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONRPCError(w, nil, ErrCodeParseError, "Parse error", "expecting jsonrpc payload")
		return
	}

	if req.JSONRPC != "2.0" {
		sendJSONRPCError(w, req.ID, ErrCodeInvalidRequest, "Invalid Request", "'jsonrpc' must be '2.0'")
		return
	}

	if req.ID == nil {
		sendJSONRPCError(w, nil, ErrCodeInvalidRequest, "Invalid Request", "'id' field is required")
		return
	}

	if req.Method == "" {
		sendJSONRPCError(w, req.ID, ErrCodeInvalidRequest, "Invalid Request", "'method' is required")
		return
	}

	utils.Info("Request ID: %v, Method: %s, Params: %s", req.ID, req.Method, string(req.Params))

	handler, exists := s.methods[req.Method]
	if !exists {
		sendJSONRPCError(w, req.ID, ErrCodeMethodNotFound, "Method not found", fmt.Sprintf("Method '%s' not found", req.Method))
		return
	}

	result, err := handler(req.Params)
	if err != nil {
		utils.Verbose("Error executing method %s: %v", req.Method, err)
		code, data := errorCode(err)
		sendJSONRPCError(w, req.ID, code, errorMessage(code), data)
		return
	}

	sendJSONRPCResponse(w, req.ID, result)
}

func sendJSONRPCResponse(w http.ResponseWriter, id interface{}, result interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendJSONRPCError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
			"data":    data,
		},
		ID: id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(okResponse)
}
