package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/niftylettuce/frappe/notify"
	"github.com/niftylettuce/frappe/utils"
)

type wsConnection struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// wsHub tracks connected websocket clients for server-initiated notifications.
type wsHub struct {
	mu    sync.RWMutex
	conns map[string]*wsConnection
}

func newWSHub() *wsHub {
	return &wsHub{conns: make(map[string]*wsConnection)}
}

func (h *wsHub) add(c *wsConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.id] = c
}

func (h *wsHub) remove(c *wsConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c.id)
}

func (h *wsHub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *wsHub) snapshot() []*wsConnection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*wsConnection, 0, len(h.conns))
	for _, c := range h.conns {
		out = append(out, c)
	}
	return out
}

// broadcast sends a notification to every client. Failed writes are logged,
// the reader loop of that connection cleans it up.
func (h *wsHub) broadcast(method string, params interface{}) {
	notification := JSONRPCNotification{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	}

	for _, c := range h.snapshot() {
		if err := c.sendJSON(notification); err != nil {
			utils.Verbose("WebSocket %s: failed to send %s: %v", c.id, method, err)
		}
	}
}

// Notify forwards notices to websocket clients
func (h *wsHub) Notify(n notify.Notice) {
	h.broadcast("notice", n)
}

func (h *wsHub) closeAll() {
	for _, c := range h.snapshot() {
		_ = c.conn.Close()
		h.remove(c)
	}
}

func newUpgrader(enableCORS bool) *websocket.Upgrader {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	if enableCORS {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	} else {
		upgrader.CheckOrigin = isSameOrigin
	}

	return &upgrader
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := newUpgrader(s.enableCORS).Upgrade(w, r, nil)
	if err != nil {
		utils.Warn("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	wsConn := &wsConnection{id: uuid.New().String(), conn: conn}
	s.hub.add(wsConn)
	defer s.hub.remove(wsConn)

	utils.Verbose("WebSocket %s connected from %s", wsConn.id, r.RemoteAddr)

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			// connection closed or error
			utils.Verbose("WebSocket %s closed: %v", wsConn.id, err)
			break
		}

		if messageType != websocket.TextMessage {
			_ = wsConn.sendError(nil, ErrCodeInvalidRequest, "Invalid Request", "only text messages accepted for requests")
			continue
		}

		s.handleWSMessage(wsConn, message)
	}
}

func isSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return originURL.Host == r.Host
}

func (s *Server) handleWSMessage(wsConn *wsConnection, message []byte) {
	var req JSONRPCRequest
	if err := json.Unmarshal(message, &req); err != nil {
		_ = wsConn.sendError(nil, ErrCodeParseError, "Parse error", "expecting jsonrpc payload")
		return
	}

	if req.JSONRPC != "2.0" {
		_ = wsConn.sendError(req.ID, ErrCodeInvalidRequest, "Invalid Request", "'jsonrpc' must be '2.0'")
		return
	}

	if req.ID == nil {
		_ = wsConn.sendError(nil, ErrCodeInvalidRequest, "Invalid Request", "'id' field is required")
		return
	}

	if req.Method == "" {
		_ = wsConn.sendError(req.ID, ErrCodeInvalidRequest, "Invalid Request", "'method' is required")
		return
	}

	utils.Info("WebSocket Request ID: %v, Method: %s, Params: %s", req.ID, req.Method, string(req.Params))

	// dispatches block for the whole chain, keep reading other requests meanwhile
	go s.handleWSMethodCall(wsConn, req)
}

func (s *Server) handleWSMethodCall(wsConn *wsConnection, req JSONRPCRequest) {
	result, err := s.Execute(req.Method, req.Params)
	if err != nil {
		utils.Verbose("Error executing method %s: %v", req.Method, err)
		code, data := errorCode(err)
		_ = wsConn.sendError(req.ID, code, errorMessage(code), data)
		return
	}

	_ = wsConn.sendResponse(req.ID, result)
}

func (wsc *wsConnection) sendResponse(id interface{}, result interface{}) error {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
	return wsc.sendJSON(response)
}

func (wsc *wsConnection) sendError(id interface{}, code int, message string, data interface{}) error {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
			"data":    data,
		},
		ID: id,
	}
	return wsc.sendJSON(response)
}

func (wsc *wsConnection) sendJSON(v interface{}) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	return wsc.conn.WriteJSON(v)
}
