package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/basalt-run/agentkit/internal/events"
)

// chatRequest is the wire shape of both /chat and /chat/stream bodies.
type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type toolCallInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Output  string `json:"output"`
	IsError bool   `json:"is_error"`
}

type chatResponse struct {
	SessionID  string         `json:"session_id"`
	Response   string         `json:"response"`
	ToolCalls  []toolCallInfo `json:"tool_calls"`
	Iterations int            `json:"iterations"`
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return chatRequest{}, false
	}
	if req.Message == "" {
		badRequest(w, "message is required")
		return chatRequest{}, false
	}
	return req, true
}

// handleChat implements POST /api/v1/chat: the synchronous non-streaming
// surface of spec §4.6.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	sess := s.sessions.GetOrCreate(req.SessionID)

	resp, err := s.loop.Run(r.Context(), sess, req.Message)
	if err != nil {
		s.logger.Error(r.Context(), "agent loop failed", "session_id", sess.ID, "error", err)
		internal(w, err.Error())
		return
	}

	calls := make([]toolCallInfo, len(resp.ToolCalls))
	for i, tc := range resp.ToolCalls {
		calls[i] = toolCallInfo{ID: tc.ID, Name: tc.Name, Output: tc.Output, IsError: tc.IsError}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(chatResponse{
		SessionID:  sess.ID,
		Response:   resp.Text,
		ToolCalls:  calls,
		Iterations: resp.Iterations,
	})
}

// handleChatStream implements POST /api/v1/chat/stream: the SSE surface
// of spec §4.6, framing each AgentEvent as a `data: <json>\n\n` record.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		internal(w, "streaming unsupported")
		return
	}

	sess := s.sessions.GetOrCreate(req.SessionID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	stream := events.NewStream(events.DefaultCapacity)
	go events.RunMinimal(r.Context(), s.loop, sess, req.Message, stream)

	for event := range stream.Receive() {
		data, err := json.Marshal(event)
		if err != nil {
			s.logger.Error(r.Context(), "failed to marshal agent event", "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// handleHealth implements GET /health: a liveness probe independent of
// downstream state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Version: Version})
}

type readyResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// handleReady implements GET /ready: a readiness probe exposing the
// current session count.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(readyResponse{Status: "ready", Sessions: s.sessions.Len()})
}
