// Package events implements the externally-observable AgentEvent protocol
// of spec §4.5: a tagged union plus a bounded channel that backpressures
// the producer, diverging from the teacher's non-blocking, drop-on-full
// ChanSink.
package events

import "context"

// Kind discriminates AgentEvent's variants. snake_case values match the
// SSE wire discriminator required by spec §6.
type Kind string

const (
	KindMessageStart Kind = "message_start"
	KindTextDelta    Kind = "text_delta"
	KindTextComplete Kind = "text_complete"
	KindToolUseStart Kind = "tool_use_start"
	KindToolUseEnd   Kind = "tool_use_end"
	KindThinking     Kind = "thinking"
	KindMessageEnd   Kind = "message_end"
	KindError        Kind = "error"
)

// AgentEvent is the tagged union of spec §4.5.
type AgentEvent struct {
	Kind Kind `json:"type"`

	SessionID string `json:"session_id,omitempty"` // MessageStart, MessageEnd

	Delta string `json:"delta,omitempty"` // TextDelta
	Text  string `json:"text,omitempty"`  // TextComplete

	ToolUseID string `json:"id,omitempty"`   // ToolUseStart, ToolUseEnd
	ToolName  string `json:"name,omitempty"` // ToolUseStart
	Input     string `json:"input,omitempty"` // ToolUseStart
	Output    string `json:"output,omitempty"` // ToolUseEnd
	IsError   bool   `json:"is_error,omitempty"` // ToolUseEnd

	Content string `json:"content,omitempty"` // Thinking

	Message string `json:"message,omitempty"` // Error
}

// MessageStart builds a MessageStart event.
func MessageStart(sessionID string) AgentEvent {
	return AgentEvent{Kind: KindMessageStart, SessionID: sessionID}
}

// TextDelta builds a TextDelta event.
func TextDelta(delta string) AgentEvent { return AgentEvent{Kind: KindTextDelta, Delta: delta} }

// TextComplete builds a TextComplete event.
func TextComplete(text string) AgentEvent { return AgentEvent{Kind: KindTextComplete, Text: text} }

// ToolUseStart builds a ToolUseStart event.
func ToolUseStart(id, name, input string) AgentEvent {
	return AgentEvent{Kind: KindToolUseStart, ToolUseID: id, ToolName: name, Input: input}
}

// ToolUseEnd builds a ToolUseEnd event.
func ToolUseEnd(id, output string, isError bool) AgentEvent {
	return AgentEvent{Kind: KindToolUseEnd, ToolUseID: id, Output: output, IsError: isError}
}

// Thinking builds a Thinking event.
func Thinking(content string) AgentEvent { return AgentEvent{Kind: KindThinking, Content: content} }

// MessageEnd builds a MessageEnd event.
func MessageEnd(sessionID string) AgentEvent {
	return AgentEvent{Kind: KindMessageEnd, SessionID: sessionID}
}

// Error builds an Error event.
func Error(message string) AgentEvent { return AgentEvent{Kind: KindError, Message: message} }

// IsEnd reports whether e is one of the two framing events that terminate
// a stream, per spec §4.5's is_end predicate.
func IsEnd(e AgentEvent) bool { return e.Kind == KindMessageEnd || e.Kind == KindError }

// DefaultCapacity is the recommended bounded-channel capacity of spec §5.
const DefaultCapacity = 100

// Stream is a bounded, ordered channel of AgentEvent with a blocking Send:
// a slow consumer backpressures the producer rather than having events
// silently dropped (spec §5's "Event stream backpressure").
type Stream struct {
	ch chan AgentEvent
}

// NewStream creates a Stream with the given buffer capacity. A
// non-positive capacity falls back to DefaultCapacity.
func NewStream(capacity int) *Stream {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stream{ch: make(chan AgentEvent, capacity)}
}

// Send blocks until the event is buffered or ctx is done. It returns
// ctx.Err() if the context was cancelled before the send completed.
func (s *Stream) Send(ctx context.Context, e AgentEvent) error {
	select {
	case s.ch <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the underlying channel. Callers must not call Send after
// Close.
func (s *Stream) Close() { close(s.ch) }

// Receive returns the read-only channel consumers range over.
func (s *Stream) Receive() <-chan AgentEvent { return s.ch }
