package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/basalt-run/agentkit/internal/agentloop"
	"github.com/basalt-run/agentkit/internal/llm"
	"github.com/basalt-run/agentkit/pkg/content"
)

type fakeProvider struct {
	text string
	err  error
}

func (p *fakeProvider) Name() string                   { return "fake" }
func (p *fakeProvider) Capabilities() llm.CapabilitySet { return llm.NewCapabilitySet() }
func (p *fakeProvider) DefaultModel() string            { return "fake-model" }
func (p *fakeProvider) ListModels(context.Context) ([]llm.ModelInfo, error) { return nil, nil }
func (p *fakeProvider) HealthCheck(context.Context) error { return nil }
func (p *fakeProvider) CompleteStream(context.Context, llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	return nil, errors.New("not implemented")
}
func (p *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	if p.err != nil {
		return llm.CompletionResponse{}, p.err
	}
	return llm.CompletionResponse{Message: content.NewMessage("m", content.RoleAssistant, content.Text(p.text))}, nil
}

func newTestServer(text string) *Server {
	loop := agentloop.New(&fakeProvider{text: text}, nil, agentloop.Config{})
	return NewServer(loop, nil)
}

func TestHandleChatReturnsResponseAndReusesSession(t *testing.T) {
	s := newTestServer("hello there")
	mux := s.Mux()

	body, _ := json.Marshal(chatRequest{Message: "hi"})
	req := httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Response != "hello there" || resp.SessionID == "" {
		t.Fatalf("resp = %+v", resp)
	}

	body2, _ := json.Marshal(chatRequest{SessionID: resp.SessionID, Message: "again"})
	req2 := httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader(body2))
	rec2 := httptest.NewRecorder()
	mux.ServeHTTP(rec2, req2)

	var resp2 chatResponse
	_ = json.Unmarshal(rec2.Body.Bytes(), &resp2)
	if resp2.SessionID != resp.SessionID {
		t.Fatalf("session id changed: %q vs %q", resp2.SessionID, resp.SessionID)
	}
	if s.sessions.Len() != 1 {
		t.Fatalf("sessions.Len() = %d, want 1 (same session reused)", s.sessions.Len())
	}
}

func TestHandleChatRejectsEmptyMessage(t *testing.T) {
	s := newTestServer("hi")
	mux := s.Mux()

	body, _ := json.Marshal(chatRequest{Message: ""})
	req := httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var apiErr apiError
	if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if apiErr.Code != 400 {
		t.Fatalf("apiErr.Code = %d, want 400", apiErr.Code)
	}
}

func TestHandleChatReturns500OnLoopError(t *testing.T) {
	loop := agentloop.New(&fakeProvider{err: errors.New("boom")}, nil, agentloop.Config{})
	s := NewServer(loop, nil)
	mux := s.Mux()

	body, _ := json.Marshal(chatRequest{Message: "hi"})
	req := httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != 500 {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestHandleChatStreamEmitsSSEFrames(t *testing.T) {
	s := newTestServer("streamed reply")
	mux := s.Mux()

	body, _ := json.Marshal(chatRequest{Message: "hi"})
	req := httptest.NewRequest("POST", "/api/v1/chat/stream", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}
	out := rec.Body.String()
	if !strings.Contains(out, `"type":"message_start"`) {
		t.Fatalf("missing message_start frame: %s", out)
	}
	if !strings.Contains(out, `"type":"text_complete"`) || !strings.Contains(out, "streamed reply") {
		t.Fatalf("missing text_complete frame: %s", out)
	}
	if !strings.Contains(out, `"type":"message_end"`) {
		t.Fatalf("missing message_end frame: %s", out)
	}
}

func TestHandleHealthAndReady(t *testing.T) {
	s := newTestServer("hi")
	mux := s.Mux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != 200 {
		t.Fatalf("health status = %d", rec.Code)
	}
	var health healthResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &health)
	if health.Status != "ok" {
		t.Fatalf("health.Status = %q, want ok", health.Status)
	}

	rec2 := httptest.NewRecorder()
	mux.ServeHTTP(rec2, httptest.NewRequest("GET", "/ready", nil))
	var ready readyResponse
	_ = json.Unmarshal(rec2.Body.Bytes(), &ready)
	if ready.Status != "ready" {
		t.Fatalf("ready.Status = %q, want ready", ready.Status)
	}
}
