// Package anthropic adapts github.com/anthropics/anthropic-sdk-go to the
// provider-neutral llm.Provider contract, translating content.ContentBlock
// messages to and from Anthropic's wire format per spec §4.3.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/basalt-run/agentkit/internal/llm"
	"github.com/basalt-run/agentkit/internal/retry"
	"github.com/basalt-run/agentkit/internal/tool"
	"github.com/basalt-run/agentkit/pkg/content"
)

const defaultModel = "claude-sonnet-4-20250514"
const defaultMaxTokens = 4096

// Config configures a Provider.
type Config struct {
	APIKey       string
	BaseURL      string
	MaxRetries   int
	RetryDelay   time.Duration
	DefaultModel string
}

// Provider is the llm.Provider implementation backed by the Anthropic API.
type Provider struct {
	client       anthropic.Client
	maxRetries   int
	retryDelay   time.Duration
	defaultModel string
}

// New constructs a Provider from cfg, applying the same defaults the rest
// of the pack uses for an Anthropic client (3 retries, 1s base backoff,
// claude-sonnet-4-20250514).
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = defaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Provider{
		client:       anthropic.NewClient(opts...),
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		defaultModel: cfg.DefaultModel,
	}, nil
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) Capabilities() llm.CapabilitySet {
	return llm.NewCapabilitySet(llm.TextInput, llm.ImageInput, llm.Streaming, llm.ToolUse, llm.Vision)
}

func (p *Provider) DefaultModel() string { return p.defaultModel }

func (p *Provider) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	return []llm.ModelInfo{
		{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", ContextSize: 200000, SupportsVision: true},
		{ID: "claude-opus-4-20250514", Name: "Claude Opus 4", ContextSize: 200000, SupportsVision: true},
		{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", ContextSize: 200000, SupportsVision: true},
		{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus", ContextSize: 200000, SupportsVision: true},
		{ID: "claude-3-sonnet-20240229", Name: "Claude 3 Sonnet", ContextSize: 200000, SupportsVision: true},
		{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", ContextSize: 200000, SupportsVision: true},
	}, nil
}

func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.ListModels(ctx)
	return err
}

func (p *Provider) model(requested string) string {
	if requested == "" {
		return p.defaultModel
	}
	return requested
}

func (p *Provider) maxTokens(requested int) int64 {
	if requested <= 0 {
		return defaultMaxTokens
	}
	return int64(requested)
}

// Complete issues a non-streaming completion, retrying transient failures
// with exponential backoff (base delay, doubling per attempt) up to
// maxRetries times.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return llm.CompletionResponse{}, llm.NewError("anthropic", err)
	}

	var msg *anthropic.Message
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		msg, lastErr = p.client.Messages.New(ctx, params)
		if lastErr == nil {
			break
		}
		wrapped := llm.NewError("anthropic", lastErr)
		if !wrapped.Kind.IsRetryable() || attempt == p.maxRetries {
			return llm.CompletionResponse{}, wrapped
		}
		backoff := retry.Backoff(attempt+1, p.retryDelay, 0, 2.0)
		select {
		case <-ctx.Done():
			return llm.CompletionResponse{}, llm.NewError("anthropic", ctx.Err())
		case <-time.After(backoff):
		}
	}
	if lastErr != nil {
		return llm.CompletionResponse{}, llm.NewError("anthropic", lastErr)
	}

	return p.toCompletionResponse(msg), nil
}

// CompleteStream issues a streaming completion, translating Anthropic SSE
// events into the normalised llm.StreamChunk protocol as they arrive.
func (p *Provider) CompleteStream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, llm.NewError("anthropic", err)
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	out := make(chan llm.StreamChunk)

	go func() {
		defer close(out)
		var toolID, toolName string
		for stream.Next() {
			event := stream.Current()
			switch event.Type {
			case "message_start":
				start := event.AsMessageStart()
				out <- llm.StreamChunk{Kind: llm.ChunkMessageStart, MessageID: start.Message.ID}
			case "content_block_start":
				block := event.AsContentBlockStart().ContentBlock
				if block.Type == "tool_use" {
					use := block.AsToolUse()
					toolID, toolName = use.ID, use.Name
					out <- llm.StreamChunk{Kind: llm.ChunkToolUseStart, ToolUseID: toolID, ToolUseName: toolName}
				}
			case "content_block_delta":
				delta := event.AsContentBlockDelta().Delta
				switch delta.Type {
				case "text_delta":
					if delta.Text != "" {
						out <- llm.StreamChunk{Kind: llm.ChunkTextDelta, Text: delta.Text}
					}
				case "input_json_delta":
					if delta.PartialJSON != "" {
						out <- llm.StreamChunk{Kind: llm.ChunkToolUseDelta, ToolUseID: toolID, ToolUseDelta: delta.PartialJSON}
					}
				}
			case "content_block_stop":
				if toolID != "" {
					out <- llm.StreamChunk{Kind: llm.ChunkToolUseEnd, ToolUseID: toolID}
					toolID, toolName = "", ""
				}
			case "message_delta":
				delta := event.AsMessageDelta()
				if delta.Usage.OutputTokens > 0 {
					out <- llm.StreamChunk{Kind: llm.ChunkUsage, Usage: llm.Usage{OutputTokens: int(delta.Usage.OutputTokens)}}
				}
				out <- llm.StreamChunk{Kind: llm.ChunkMessageEnd, StopReason: llm.MapFinishReason(string(delta.Delta.StopReason))}
			case "message_stop":
				// message_delta already emitted MessageEnd; nothing further.
			}
		}
		if err := stream.Err(); err != nil {
			wrapped := llm.NewError("anthropic", err)
			out <- llm.StreamChunk{Kind: llm.ChunkError, ErrorMessage: wrapped.Error()}
		}
	}()

	return out, nil
}

func (p *Provider) buildParams(req llm.CompletionRequest) (anthropic.MessageNewParams, error) {
	messages, err := convertMessages(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, fmt.Errorf("anthropic: converting messages: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model(req.Model)),
		Messages:  messages,
		MaxTokens: p.maxTokens(req.MaxTokens),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		tools, err := convertTools(req.Tools)
		if err != nil {
			return anthropic.MessageNewParams{}, fmt.Errorf("anthropic: converting tools: %w", err)
		}
		params.Tools = tools
	}
	return params, nil
}

// convertMessages maps session content.Message values to Anthropic's
// MessageParam wire format: text blocks, tool_use blocks, and tool_result
// blocks (ToolResult lives in a RoleTool message, folded into a user turn
// the way Anthropic expects tool replies).
func convertMessages(messages []content.Message) ([]anthropic.MessageParam, error) {
	var out []anthropic.MessageParam
	for _, m := range messages {
		if m.Role == content.RoleSystem {
			continue
		}

		var blocks []anthropic.ContentBlockParamUnion
		for _, b := range m.Content {
			switch b.Kind {
			case content.BlockText:
				blocks = append(blocks, anthropic.NewTextBlock(b.Text))
			case content.BlockToolUse:
				var input map[string]any
				if len(b.ToolInput) > 0 {
					if err := json.Unmarshal(b.ToolInput, &input); err != nil {
						return nil, fmt.Errorf("tool_use %q: invalid input JSON: %w", b.ToolUseID, err)
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(b.ToolUseID, input, b.ToolName))
			case content.BlockToolResult:
				text := b.ResultText
				if b.IsError && b.ResultError != "" {
					text = b.ResultError
				}
				blocks = append(blocks, anthropic.NewToolResultBlock(b.ToolUseRefID, text, b.IsError))
			}
		}

		if m.Role == content.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out, nil
}

// convertTools maps tool.Definition to Anthropic's schema-bearing tool
// param union.
func convertTools(defs []tool.Definition) ([]anthropic.ToolUnionParam, error) {
	var out []anthropic.ToolUnionParam
	for _, def := range defs {
		var schema anthropic.ToolInputSchemaParam
		if len(def.Parameters) > 0 {
			if err := json.Unmarshal(def.Parameters, &schema); err != nil {
				return nil, fmt.Errorf("tool %q: invalid parameter schema: %w", def.Name, err)
			}
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, def.Name)
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("tool %q: missing tool definition", def.Name)
		}
		toolParam.OfTool.Description = anthropic.String(def.Description)
		out = append(out, toolParam)
	}
	return out, nil
}

func (p *Provider) toCompletionResponse(msg *anthropic.Message) llm.CompletionResponse {
	var text string
	var toolUses []content.ContentBlock
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text += block.AsText().Text
		case "tool_use":
			use := block.AsToolUse()
			raw, _ := json.Marshal(use.Input)
			toolUses = append(toolUses, content.ToolUse(use.ID, use.Name, raw))
		}
	}

	return llm.CompletionResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Message:    llm.BuildAssistantMessage(msg.ID, text, toolUses),
		StopReason: llm.MapFinishReason(string(msg.StopReason)),
		Usage: llm.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
}

var _ llm.Provider = (*Provider)(nil)
