// Package httpapi implements the synchronous and streaming HTTP surfaces
// of spec §4.6/§6: POST /api/v1/chat, POST /api/v1/chat/stream (SSE),
// GET /health and GET /ready. Routing uses the standard library's
// http.ServeMux (Go 1.22+ method+path patterns); no router dependency is
// wired anywhere else in this module, so pulling one in for this surface
// alone is unjustified (see DESIGN.md).
package httpapi

import (
	"net/http"
	"time"

	"github.com/basalt-run/agentkit/internal/agentloop"
	"github.com/basalt-run/agentkit/internal/observability"
	"github.com/basalt-run/agentkit/internal/session"
)

// Version is stamped into the /health response. Overridden at link time
// in cmd/agentkit via -ldflags, mirroring the teacher's build metadata.
var Version = "dev"

// Server bundles a single agent loop with a session cache, the shape the
// per-agent HTTP surface of spec §6 is scoped to (one configured agent
// per process, many concurrent sessions).
type Server struct {
	loop      *agentloop.Loop
	sessions  *session.Cache
	logger    *observability.Logger
	startedAt time.Time
}

// NewServer wires a Loop and a fresh session cache into a Server. A nil
// logger is replaced with a no-op JSON logger writing to stderr.
func NewServer(loop *agentloop.Loop, logger *observability.Logger) *Server {
	if logger == nil {
		logger = observability.NewLogger(observability.LogConfig{Level: "info", Format: "json"})
	}
	return &Server{
		loop:      loop,
		sessions:  session.NewCache(),
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Mux builds the http.ServeMux exposing this Server's routes.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat", s.handleChat)
	mux.HandleFunc("POST /api/v1/chat/stream", s.handleChatStream)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	return mux
}
