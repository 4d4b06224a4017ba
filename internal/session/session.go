// Package session implements the shared, interior-mutable conversation log
// described in spec §4.1: concurrent append and snapshot-read over an
// ordered message list, plus monotonic counters.
package session

import (
	"sync"
	"time"

	"github.com/basalt-run/agentkit/internal/id"
	"github.com/basalt-run/agentkit/pkg/content"
)

// Stats is a point-in-time snapshot of a Session's counters.
type Stats struct {
	MessageCount   int `json:"message_count"`
	ToolCallCount  int `json:"tool_call_count"`
	IterationCount int `json:"iteration_count"`
}

// Session is a shared-mutable, append-only (with truncation) message log.
// The zero value is not usable; construct with New. A *Session is safe for
// concurrent use: many goroutines may call messages()-style readers while
// one appends.
type Session struct {
	ID        string
	CreatedAt time.Time
	Metadata  map[string]any

	mu       sync.RWMutex
	messages []content.Message
	stats    Stats
}

// New creates an empty session. If sid is empty, a fresh id is minted.
func New(sid string) *Session {
	if sid == "" {
		sid = id.New().String()
	}
	return &Session{
		ID:        sid,
		CreatedAt: time.Now(),
	}
}

// AddMessage appends m to the log and bumps message_count.
func (s *Session) AddMessage(m content.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	s.stats.MessageCount++
}

// Messages returns a value-copy snapshot of the current log.
func (s *Session) Messages() []content.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]content.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// LastMessages returns a copy of the tail of the log, up to n messages. If
// the log is shorter than n, the full log is returned.
func (s *Session) LastMessages(n int) []content.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || len(s.messages) == 0 {
		return nil
	}
	start := 0
	if len(s.messages) > n {
		start = len(s.messages) - n
	}
	out := make([]content.Message, len(s.messages)-start)
	copy(out, s.messages[start:])
	return out
}

// Truncate drops the oldest messages so at most max remain in the log.
// message_count is deliberately NOT decremented — it tracks total appends,
// not current length (spec §4.1, §9 open question 1).
func (s *Session) Truncate(max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if max < 0 || len(s.messages) <= max {
		return
	}
	drop := len(s.messages) - max
	kept := make([]content.Message, max)
	copy(kept, s.messages[drop:])
	s.messages = kept
}

// IncrementToolCalls bumps tool_call_count by k.
func (s *Session) IncrementToolCalls(k int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.ToolCallCount += k
}

// IncrementIterations bumps iteration_count by one.
func (s *Session) IncrementIterations() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.IterationCount++
}

// Stats returns a snapshot of the counters.
func (s *Session) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Len returns the current message-log length (not total appends).
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
