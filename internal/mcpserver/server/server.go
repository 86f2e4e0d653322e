// Package server implements the Streamable HTTP MCP endpoint that
// exposes read-only journal analytics tools to LLM clients.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/journalapp/journal-sync/internal/mcpserver/config"
	"github.com/journalapp/journal-sync/internal/mcpserver/tools"
)

// MCPServer is the main Streamable HTTP MCP server
type MCPServer struct {
	config       *config.Config
	httpServer   *http.Server
	sessionMgr   *SessionManager
	toolRegistry *tools.Registry
	toolCtx      *tools.ToolContext
}

// NewMCPServer creates a new MCP server over a read-only database
// handle. The server never writes to the journal database.
func NewMCPServer(cfg *config.Config, db *sql.DB) *MCPServer {
	sessionMgr := NewSessionManager(24 * time.Hour)

	toolRegistry := tools.NewRegistry()
	tools.RegisterAllTools(toolRegistry)

	toolCtx := tools.NewToolContext(&log.Logger, db, cfg.MaxRows, cfg.QueryLogging, cfg.StrictValidation)

	return &MCPServer{
		config:       cfg,
		sessionMgr:   sessionMgr,
		toolRegistry: toolRegistry,
		toolCtx:      toolCtx,
	}
}

// Start starts the HTTP server
func (s *MCPServer) Start(addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /mcp", s.handleMCPPost)
	mux.HandleFunc("GET /mcp", s.handleMCPGet)
	mux.HandleFunc("DELETE /mcp", s.handleMCPDelete)

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		// WriteTimeout is intentionally omitted to support long-lived SSE
		// connections used for server-to-client notifications
	}

	log.Info().Str("addr", addr).Msg("Starting MCP analytics server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *MCPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// isSupportedProtocolVersion reports whether the client's declared MCP
// protocol version is one this server speaks.
func isSupportedProtocolVersion(version string) bool {
	switch version {
	case "2024-11-05", "2025-03-26", "2025-06-18":
		return true
	}
	return false
}

// handleMCPPost handles POST /mcp (JSON-RPC requests)
func (s *MCPServer) handleMCPPost(w http.ResponseWriter, r *http.Request) {
	// Validate Origin header (DNS rebinding protection)
	if !s.validateOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	if !isSupportedProtocolVersion(r.Header.Get("Mcp-Protocol-Version")) {
		http.Error(w, "unsupported protocol version", http.StatusBadRequest)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, nil, ParseError, "invalid JSON")
		return
	}

	if req.JSONRPC != "2.0" {
		s.sendError(w, req.ID, InvalidRequest, "invalid jsonrpc version")
		return
	}

	// Notifications get acknowledged without a body
	if req.IsNotification() {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	// initialize creates the session, everything else requires one
	if req.Method == "initialize" {
		s.handleInitialize(w, &req)
		return
	}

	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		s.sendError(w, req.ID, InvalidRequest, "missing Mcp-Session-Id header")
		return
	}

	session, err := s.sessionMgr.GetSession(sessionID)
	if err != nil {
		s.sendError(w, req.ID, InvalidRequest, "session not found")
		return
	}

	s.sessionMgr.UpdateLastSeen(sessionID)

	s.handleJSONRPC(w, r, &req, session)
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeParams struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ClientInfo      clientInfo `json:"clientInfo"`
}

// handleInitialize handles the initialize request
func (s *MCPServer) handleInitialize(w http.ResponseWriter, req *JSONRPCRequest) {
	var params initializeParams
	if len(req.Params) > 0 {
		// Best effort, clientInfo is informational only
		json.Unmarshal(req.Params, &params)
	}

	session := s.sessionMgr.CreateSession(params.ClientInfo.Name)

	log.Info().
		Str("sessionId", session.ID).
		Str("client", params.ClientInfo.Name).
		Msg("Created new MCP session")

	w.Header().Set("Mcp-Session-Id", session.ID)
	w.Header().Set("Content-Type", "application/json")

	result := map[string]interface{}{
		"protocolVersion": "2025-03-26",
		"capabilities": map[string]interface{}{
			"tools":     map[string]interface{}{},
			"resources": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    "Journal Analytics MCP Server",
			"version": "0.1.0",
		},
	}

	response := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  mustMarshal(result),
	}

	json.NewEncoder(w).Encode(response)
}

// handleJSONRPC routes JSON-RPC requests to appropriate handlers
func (s *MCPServer) handleJSONRPC(w http.ResponseWriter, r *http.Request, req *JSONRPCRequest, session *MCPSession) {
	ctx := r.Context()

	switch req.Method {
	case "tools/list":
		s.sendResult(w, req.ID, map[string]interface{}{
			"tools": s.toolRegistry.List(),
		})

	case "tools/call":
		var callReq tools.CallRequest
		if err := json.Unmarshal(req.Params, &callReq); err != nil {
			s.sendError(w, req.ID, InvalidParams, "invalid tool call parameters")
			return
		}

		log.Debug().
			Str("sessionId", session.ID).
			Str("tool", callReq.Name).
			Msg("Tool call")

		result, err := s.toolRegistry.Call(ctx, s.toolCtx, callReq)
		if err != nil {
			if toolErr, ok := err.(*tools.ToolError); ok {
				code, message, data := toolErr.ToJSONRPCError()
				s.sendError(w, req.ID, code, message, data)
			} else {
				s.sendError(w, req.ID, InternalError, err.Error())
			}
			return
		}

		s.sendResult(w, req.ID, result)

	case "resources/list":
		s.sendResult(w, req.ID, map[string]interface{}{
			"resources": []map[string]interface{}{
				{
					"uri":         tools.DataGuideURI,
					"name":        "journal_data_guide",
					"description": "Guide for analyzing journal tracker data",
					"mimeType":    "text/markdown",
				},
			},
		})

	case "resources/read":
		var params struct {
			URI string `json:"uri"`
		}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.sendError(w, req.ID, InvalidParams, "invalid resource read parameters")
			return
		}
		if params.URI != tools.DataGuideURI {
			s.sendError(w, req.ID, InvalidParams, fmt.Sprintf("unknown resource: %s", params.URI))
			return
		}
		s.sendResult(w, req.ID, map[string]interface{}{
			"contents": []map[string]interface{}{
				{
					"uri":      tools.DataGuideURI,
					"mimeType": "text/markdown",
					"text":     tools.DataGuide(),
				},
			},
		})

	case "ping":
		s.sendResult(w, req.ID, map[string]interface{}{
			"status": "ok",
		})

	default:
		s.sendError(w, req.ID, MethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

// handleMCPGet handles GET /mcp (SSE stream)
func (s *MCPServer) handleMCPGet(w http.ResponseWriter, r *http.Request) {
	if !s.validateOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	if !isSupportedProtocolVersion(r.Header.Get("Mcp-Protocol-Version")) {
		http.Error(w, "unsupported protocol version", http.StatusBadRequest)
		return
	}

	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		http.Error(w, "missing Mcp-Session-Id header", http.StatusBadRequest)
		return
	}

	if _, err := s.sessionMgr.GetSession(sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	stream, err := NewSSEStream(r.Context(), w, sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer stream.Close()

	log.Info().
		Str("sessionId", sessionID).
		Msg("SSE stream established")

	// The stream stays open for future server-to-client notifications.
	// Nothing is pushed today; the connection closes when the client
	// disconnects.
	<-stream.Done()

	log.Info().
		Str("sessionId", sessionID).
		Msg("SSE stream closed")
}

// handleMCPDelete handles DELETE /mcp (close session)
func (s *MCPServer) handleMCPDelete(w http.ResponseWriter, r *http.Request) {
	if !s.validateOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	sessionID := r.Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		http.Error(w, "missing session ID", http.StatusBadRequest)
		return
	}

	s.sessionMgr.DeleteSession(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// validateOrigin checks if the request Origin header is allowed.
// This prevents DNS rebinding attacks as required by MCP Streamable HTTP.
func (s *MCPServer) validateOrigin(r *http.Request) bool {
	// If no allowed origins configured, allow all (safe only for local use)
	if len(s.config.AllowedOrigins) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// Desktop MCP clients do not send an Origin header
		return true
	}

	for _, allowed := range s.config.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}

	log.Warn().
		Str("origin", origin).
		Strs("allowedOrigins", s.config.AllowedOrigins).
		Msg("Origin not in allowlist")
	return false
}

func (s *MCPServer) sendError(w http.ResponseWriter, id json.RawMessage, code int, message string, data ...json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK) // JSON-RPC errors are still HTTP 200

	errObj := &JSONRPCError{
		Code:    code,
		Message: message,
	}
	if len(data) > 0 && data[0] != nil {
		errObj.Data = data[0]
	}

	response := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   errObj,
	}

	json.NewEncoder(w).Encode(response)
}

func (s *MCPServer) sendResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	w.Header().Set("Content-Type", "application/json")

	response := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  mustMarshal(result),
	}

	json.NewEncoder(w).Encode(response)
}

func mustMarshal(v interface{}) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
