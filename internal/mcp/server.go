// ABOUTME: MCP server over the Streamable HTTP transport.
// ABOUTME: Single /mcp endpoint: POST for calls, GET for the event stream, DELETE to end sessions.

package mcp

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tmaxmax/go-sse"

	"github.com/inkwell-sh/inkwell/internal/auth"
	"github.com/inkwell-sh/inkwell/internal/tools"
)

// sessionErrorBody is the HTTP 400 body for missing or unknown sessions.
// Session errors never become JSON-RPC error bodies; no id context exists.
const sessionErrorBody = "invalid or missing session id"

const defaultKeepaliveInterval = 25 * time.Second

// Config holds configuration for the MCP server.
type Config struct {
	Registry      *tools.Registry
	Logger        *slog.Logger
	TokenVerifier auth.TokenVerifier
	RequireAuth   bool // If true, reject initialize without a valid bearer token

	ServerName    string
	ServerVersion string

	SessionTTL        time.Duration // idle sessions are swept after this; 0 disables
	KeepaliveInterval time.Duration // ping cadence on GET streams
}

// Server implements the MCP Streamable HTTP transport on a single /mcp
// endpoint, backed by the tool registry.
type Server struct {
	registry      *tools.Registry
	logger        *slog.Logger
	verifier      auth.TokenVerifier
	requireAuth   bool
	serverName    string
	serverVersion string
	keepalive     time.Duration
	sessions      *sessionStore
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.RequireAuth && cfg.TokenVerifier == nil {
		return nil, errors.New("token verifier required when auth is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "mcp")

	name := cfg.ServerName
	if name == "" {
		name = "inkwell"
	}
	version := cfg.ServerVersion
	if version == "" {
		version = "1.0.0"
	}
	keepalive := cfg.KeepaliveInterval
	if keepalive <= 0 {
		keepalive = defaultKeepaliveInterval
	}

	return &Server{
		registry:      cfg.Registry,
		logger:        logger,
		verifier:      cfg.TokenVerifier,
		requireAuth:   cfg.RequireAuth,
		serverName:    name,
		serverVersion: version,
		keepalive:     keepalive,
		sessions:      newSessionStore(cfg.SessionTTL, logger),
	}, nil
}

// RegisterRoutes registers the MCP endpoint on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/mcp", s.handleMCP)
}

// Shutdown terminates all sessions and stops background work.
func (s *Server) Shutdown() {
	s.sessions.shutdown()
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	return s.sessions.count()
}

// NotesChanged broadcasts a notes-changed notification to every session
// with an open event stream. Implements tools.ChangeNotifier.
func (s *Server) NotesChanged() {
	s.broadcast("notifications/notes/changed")
}

func (s *Server) broadcast(notifyMethod string) {
	data, err := json.Marshal(JSONRPCNotification{
		JSONRPC: "2.0",
		Method:  notifyMethod,
	})
	if err != nil {
		s.logger.Warn("failed to encode notification", "method", notifyMethod, "error", err)
		return
	}

	for _, sess := range s.sessions.all() {
		sess.notify(data)
	}
}

// handleMCP is the single MCP endpoint supporting POST, GET, and DELETE
// per the Streamable HTTP transport.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodGet:
		s.handleGet(w, r)
	case http.MethodDelete:
		s.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "POST, GET, DELETE")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handlePost processes JSON-RPC messages sent via HTTP POST.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		s.sendJSONRPCError(w, nil, JSONRPCParseError, "failed to read request body", nil)
		return
	}
	if int64(len(body)) > MaxRequestBodySize {
		s.sendJSONRPCError(w, nil, JSONRPCInvalidRequest, "request body too large", nil)
		return
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.sendJSONRPCError(w, nil, JSONRPCParseError, "invalid JSON", nil)
		return
	}

	if req.JSONRPC != "2.0" {
		s.sendJSONRPCError(w, req.ID, JSONRPCInvalidRequest, "invalid JSON-RPC version", nil)
		return
	}
	if req.Method == "" {
		s.sendJSONRPCError(w, req.ID, JSONRPCInvalidRequest, "method is required", nil)
		return
	}

	// Parse the method string exactly once; everything below switches on
	// the closed method type.
	m := parseMethod(req.Method)

	// Resolve or create the session. Only a non-notification initialize
	// without a session header may create one; everything else needs a
	// live session or is rejected before dispatch.
	var sess *session
	if sessionID := r.Header.Get("Mcp-Session-Id"); sessionID != "" {
		var ok bool
		sess, ok = s.sessions.get(sessionID)
		if !ok {
			http.Error(w, sessionErrorBody, http.StatusBadRequest)
			return
		}
	} else {
		if m != methodInitialize {
			http.Error(w, sessionErrorBody, http.StatusBadRequest)
			return
		}
		if req.IsNotification() {
			s.sendJSONRPCError(w, nil, JSONRPCInvalidRequest, "initialize must not be a notification", nil)
			return
		}

		client, err := s.authenticate(r)
		if err != nil {
			s.sendJSONRPCError(w, req.ID, JSONRPCInvalidRequest, err.Error(), nil)
			return
		}

		sess = s.sessions.create(client)
		w.Header().Set("Mcp-Session-Id", sess.id)
		s.logger.Info("session created", "session_id", sess.id, "client", client)
	}

	s.logger.Debug("request",
		"method", req.Method,
		"is_notification", req.IsNotification(),
		"session_id", sess.id,
	)

	// Notifications: accept and return HTTP 202 with no body.
	if req.IsNotification() {
		if m != methodNotification {
			s.logger.Warn("notification for non-notification method", "method", req.Method)
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	switch m {
	case methodInitialize:
		s.handleInitialize(w, req)
	case methodPing:
		s.sendJSONRPCResult(w, req.ID, struct{}{})
	case methodToolsList:
		s.handleToolsList(w, req)
	case methodToolsCall:
		s.handleToolsCall(w, r, req)
	case methodNotification, methodUnknown:
		s.sendJSONRPCError(w, req.ID, JSONRPCMethodNotFound, "method not found", nil)
	}
}

// handleGet serves the server-to-client event stream for a session.
// Disconnects release the stream but keep the session alive; only
// DELETE or shutdown destroys it.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		http.Error(w, sessionErrorBody, http.StatusBadRequest)
		return
	}
	sess, ok := s.sessions.get(sessionID)
	if !ok {
		http.Error(w, sessionErrorBody, http.StatusBadRequest)
		return
	}

	upgraded, err := sse.Upgrade(w, r)
	if err != nil {
		s.logger.Error("failed to upgrade stream", "session_id", sess.id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	stream := newSSEStream(upgraded)
	sess.attachStream(stream)
	defer sess.releaseStream(stream)

	s.logger.Info("stream opened", "session_id", sess.id)
	defer s.logger.Info("stream closed", "session_id", sess.id)

	// Flush an initial ping so the client sees response headers
	// immediately instead of waiting for the first keepalive.
	if err := stream.Send("ping", []byte("{}")); err != nil {
		stream.Close()
		return
	}

	ticker := time.NewTicker(s.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			stream.Close()
			return
		case <-stream.Done():
			return
		case <-ticker.C:
			if err := stream.Send("ping", []byte("{}")); err != nil {
				stream.Close()
				return
			}
			sess.touch()
		}
	}
}

// handleDelete terminates a session explicitly.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" || !s.sessions.terminate(sessionID) {
		http.Error(w, sessionErrorBody, http.StatusBadRequest)
		return
	}

	s.logger.Info("session terminated", "session_id", sessionID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"message":    "session terminated",
		"statusCode": http.StatusOK,
	}); err != nil {
		s.logger.Warn("failed to encode delete response", "error", err)
	}
}

// handleInitialize answers the MCP initialize handshake.
func (s *Server) handleInitialize(w http.ResponseWriter, req JSONRPCRequest) {
	s.sendJSONRPCResult(w, req.ID, InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools: ToolsCapability{ListChanged: false},
		},
		ServerInfo: ServerInfo{
			Name:    s.serverName,
			Version: s.serverVersion,
		},
	})
}

// handleToolsList handles tools/list requests.
func (s *Server) handleToolsList(w http.ResponseWriter, req JSONRPCRequest) {
	all := s.registry.List()

	result := ListToolsResult{
		Tools: make([]ToolInfo, len(all)),
	}
	for i, tool := range all {
		result.Tools[i] = ToolInfo{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}
	}

	s.logger.Debug("tools/list", "count", len(all))
	s.sendJSONRPCResult(w, req.ID, result)
}

// handleToolsCall handles tools/call requests. Business failures come
// back as isError results inside a successful envelope; only envelope
// and validation problems become JSON-RPC errors.
func (s *Server) handleToolsCall(w http.ResponseWriter, r *http.Request, req JSONRPCRequest) {
	var params CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.sendJSONRPCError(w, req.ID, JSONRPCInvalidParams, "invalid params", nil)
			return
		}
	}
	if params.Name == "" {
		s.sendJSONRPCError(w, req.ID, JSONRPCInvalidParams, "tool name is required", nil)
		return
	}

	result, err := s.registry.Invoke(r.Context(), params.Name, params.Arguments)
	if err != nil {
		switch {
		case errors.Is(err, tools.ErrToolNotFound):
			s.sendJSONRPCError(w, req.ID, JSONRPCInvalidParams, "tool not found", nil)
		case errors.Is(err, tools.ErrInvalidInput):
			s.sendJSONRPCError(w, req.ID, JSONRPCInvalidParams, err.Error(), nil)
		default:
			s.logger.Warn("tool invocation failed", "tool", params.Name, "error", err)
			s.sendJSONRPCError(w, req.ID, JSONRPCInternalError, "tool execution failed", nil)
		}
		return
	}

	s.logger.Debug("tools/call complete",
		"tool", params.Name,
		"is_error", result.IsError,
	)
	s.sendJSONRPCResult(w, req.ID, result)
}

// authenticate resolves the client name from the request's bearer token.
// Without a verifier, or without RequireAuth and no token, the session
// is anonymous.
func (s *Server) authenticate(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if s.requireAuth {
			return "", errors.New("authentication required")
		}
		return "", nil
	}

	if s.verifier == nil {
		if s.requireAuth {
			return "", errors.New("authentication required")
		}
		return "", nil
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == authHeader || token == "" {
		return "", errors.New("invalid authorization header format")
	}

	client, err := s.verifier.Verify(token)
	if err != nil {
		return "", errors.New("invalid or expired token")
	}
	return client, nil
}

// sendJSONRPCResult sends a successful JSON-RPC response.
func (s *Server) sendJSONRPCResult(w http.ResponseWriter, id json.RawMessage, result any) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC response", "error", err)
	}
}

// sendJSONRPCError sends a JSON-RPC error response.
func (s *Server) sendJSONRPCError(w http.ResponseWriter, id json.RawMessage, code int, message string, data any) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC error response", "error", err)
	}
}
