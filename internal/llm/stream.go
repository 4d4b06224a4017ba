package llm

import "encoding/json"

// ChunkKind discriminates the variants of StreamChunk (spec §4.3).
type ChunkKind string

const (
	ChunkMessageStart      ChunkKind = "message_start"
	ChunkTextDelta         ChunkKind = "text_delta"
	ChunkToolUseStart      ChunkKind = "tool_use_start"
	ChunkToolUseDelta      ChunkKind = "tool_use_delta"
	ChunkToolUseEnd        ChunkKind = "tool_use_end"
	ChunkContentBlockStart ChunkKind = "content_block_start"
	ChunkContentBlockEnd   ChunkKind = "content_block_end"
	ChunkPing              ChunkKind = "ping"
	ChunkUsage             ChunkKind = "usage"
	ChunkMessageEnd        ChunkKind = "message_end"
	ChunkError             ChunkKind = "error"
)

// StreamChunk is the normalised, vendor-independent unit of a streaming
// completion (spec §4.3).
type StreamChunk struct {
	Kind ChunkKind

	MessageID string // MessageStart

	Text string // TextDelta

	ToolUseID    string // ToolUseStart, ToolUseDelta, ToolUseEnd
	ToolUseName  string // ToolUseStart
	ToolUseDelta string // ToolUseDelta: appended to the JSON-argument buffer

	BlockIndex int // ContentBlockStart/End

	Usage Usage // Usage: last one wins

	StopReason StopReason // MessageEnd

	ErrorCode    string // Error
	ErrorMessage string // Error
}

// ToolUseAccumulator tracks one in-flight tool-use block across a stream.
type ToolUseAccumulator struct {
	ID        string
	Name      string
	InputJSON string
}

// StreamAggregator is the pure in-memory state machine of spec §4.3: it
// folds a chunk sequence into a completed message plus usage counters.
type StreamAggregator struct {
	messageID  string
	text       string
	toolUses   []*ToolUseAccumulator
	toolByID   map[string]*ToolUseAccumulator
	stopReason StopReason
	usage      Usage
	complete   bool
	hasError   bool
	errMessage string
}

// NewStreamAggregator returns a fresh aggregator.
func NewStreamAggregator() *StreamAggregator {
	return &StreamAggregator{toolByID: make(map[string]*ToolUseAccumulator)}
}

// Feed applies one chunk to the state machine. Ordering rule: a
// ToolUseDelta for an id with no matching ToolUseStart is dropped.
func (a *StreamAggregator) Feed(c StreamChunk) {
	switch c.Kind {
	case ChunkMessageStart:
		a.messageID = c.MessageID
	case ChunkTextDelta:
		a.text += c.Text
	case ChunkToolUseStart:
		acc := &ToolUseAccumulator{ID: c.ToolUseID, Name: c.ToolUseName}
		a.toolUses = append(a.toolUses, acc)
		a.toolByID[c.ToolUseID] = acc
	case ChunkToolUseDelta:
		if acc, ok := a.toolByID[c.ToolUseID]; ok {
			acc.InputJSON += c.ToolUseDelta
		}
	case ChunkToolUseEnd:
		// informational; MessageEnd implies completion of all open tool-uses.
	case ChunkContentBlockStart, ChunkContentBlockEnd, ChunkPing:
		// informational, ignored for semantics.
	case ChunkUsage:
		a.usage = c.Usage
	case ChunkMessageEnd:
		a.stopReason = c.StopReason
		a.complete = true
	case ChunkError:
		a.hasError = true
		a.errMessage = c.ErrorMessage
		a.complete = true
	}
}

// MessageID returns the id carried by MessageStart, if seen.
func (a *StreamAggregator) MessageID() string { return a.messageID }

// Text returns the accumulated text buffer.
func (a *StreamAggregator) Text() string { return a.text }

// ToolUses returns the accumulated tool-use records, in the order their
// ToolUseStart chunks arrived.
func (a *StreamAggregator) ToolUses() []ToolUseAccumulator {
	out := make([]ToolUseAccumulator, len(a.toolUses))
	for i, acc := range a.toolUses {
		out[i] = *acc
	}
	return out
}

// StopReason returns the stop reason carried by MessageEnd, if seen.
func (a *StreamAggregator) StopReason() StopReason { return a.stopReason }

// Usage returns the last Usage chunk seen.
func (a *StreamAggregator) Usage() Usage { return a.usage }

// IsComplete reports whether a MessageEnd (or Error) has been observed.
func (a *StreamAggregator) IsComplete() bool { return a.complete }

// HasError reports whether the stream terminated with an Error chunk.
func (a *StreamAggregator) HasError() bool { return a.hasError }

// ErrorMessage returns the message carried by the terminal Error chunk.
func (a *StreamAggregator) ErrorMessage() string { return a.errMessage }

// Clear restores the aggregator to its initial state.
func (a *StreamAggregator) Clear() {
	*a = StreamAggregator{toolByID: make(map[string]*ToolUseAccumulator)}
}

// ToolUseInputsJSON returns the accumulated JSON-argument buffer for id as
// a json.RawMessage, defaulting to an empty object if nothing arrived.
func (a *StreamAggregator) ToolUseInputJSON(id string) json.RawMessage {
	acc, ok := a.toolByID[id]
	if !ok || acc.InputJSON == "" {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(acc.InputJSON)
}
