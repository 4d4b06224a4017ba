// Package llm defines the provider-neutral LLM contract: requests,
// responses, capability negotiation, and the normalised streaming
// protocol, per spec §4.3.
package llm

import (
	"context"

	"github.com/basalt-run/agentkit/internal/tool"
	"github.com/basalt-run/agentkit/pkg/content"
)

// Capability is a named feature flag a provider advertises.
type Capability string

const (
	TextInput       Capability = "text_input"
	ImageInput      Capability = "image_input"
	Streaming       Capability = "streaming"
	ToolUse         Capability = "tool_use"
	FunctionCalling Capability = "function_calling"
	JSONMode        Capability = "json_mode"
	Vision          Capability = "vision"
)

// CapabilitySet is a small fixed set of Capability values.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a CapabilitySet from the given capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// ToolChoiceKind discriminates ToolChoice's variants.
type ToolChoiceKind string

const (
	ToolChoiceAuto     ToolChoiceKind = "auto"
	ToolChoiceNone     ToolChoiceKind = "none"
	ToolChoiceRequired ToolChoiceKind = "required"
	ToolChoiceNamed    ToolChoiceKind = "tool"
)

// ToolChoice controls whether/which tool the model must call.
type ToolChoice struct {
	Kind ToolChoiceKind
	Name string // populated when Kind == ToolChoiceNamed
}

// StopReason normalises vendor finish-reason strings.
type StopReason string

const (
	StopEndTurn      StopReason = "end_turn"
	StopMaxTokens    StopReason = "max_tokens"
	StopSequence     StopReason = "stop_sequence"
	StopToolUse      StopReason = "tool_use"
)

// Usage reports token accounting for a completion.
type Usage struct {
	InputTokens  int  `json:"input_tokens"`
	OutputTokens int  `json:"output_tokens"`
	CacheRead    *int `json:"cache_read,omitempty"`
	CacheWrite   *int `json:"cache_write,omitempty"`
}

// CompletionRequest is the provider-neutral request shape of spec §3.
type CompletionRequest struct {
	Model       string
	Messages    []content.Message
	System      string
	Tools       []tool.Definition
	ToolChoice  ToolChoice
	MaxTokens   int
	Temperature float64
	TopP        float64
	Stop        []string
	Stream      bool
	Metadata    map[string]any
}

// CompletionResponse is the provider-neutral response shape of spec §3.
type CompletionResponse struct {
	ID         string
	Model      string
	Message    content.Message
	StopReason StopReason
	Usage      Usage
	Metadata   map[string]any
}

// ModelInfo describes a model a provider can serve.
type ModelInfo struct {
	ID             string
	Name           string
	ContextSize    int
	SupportsVision bool
}

// Provider is the polymorphic collaborator of spec §4.3.
type Provider interface {
	Name() string
	Capabilities() CapabilitySet
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	CompleteStream(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)
	ListModels(ctx context.Context) ([]ModelInfo, error)
	DefaultModel() string
	HealthCheck(ctx context.Context) error
}
