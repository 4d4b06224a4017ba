// Package openai adapts github.com/sashabaranov/go-openai to the
// provider-neutral llm.Provider contract, per spec §4.3.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/basalt-run/agentkit/internal/llm"
	"github.com/basalt-run/agentkit/internal/retry"
	"github.com/basalt-run/agentkit/internal/tool"
	"github.com/basalt-run/agentkit/pkg/content"
)

const defaultModel = "gpt-4o"

// Config configures a Provider.
type Config struct {
	APIKey     string
	BaseURL    string
	MaxRetries int
	RetryDelay time.Duration
}

// Provider is the llm.Provider implementation backed by the OpenAI chat
// completions API.
type Provider struct {
	client     *openai.Client
	maxRetries int
	retryDelay time.Duration
}

// New constructs a Provider from cfg.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client:     openai.NewClientWithConfig(clientCfg),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Capabilities() llm.CapabilitySet {
	return llm.NewCapabilitySet(llm.TextInput, llm.ImageInput, llm.Streaming, llm.FunctionCalling, llm.JSONMode, llm.Vision)
}

func (p *Provider) DefaultModel() string { return defaultModel }

func (p *Provider) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	return []llm.ModelInfo{
		{ID: "gpt-4o", Name: "GPT-4o", ContextSize: 128000, SupportsVision: true},
		{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", ContextSize: 128000, SupportsVision: true},
		{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", ContextSize: 16385, SupportsVision: false},
		{ID: "gpt-4", Name: "GPT-4", ContextSize: 8192, SupportsVision: false},
	}, nil
}

func (p *Provider) HealthCheck(ctx context.Context) error {
	_, err := p.ListModels(ctx)
	return err
}

func (p *Provider) buildRequest(req llm.CompletionRequest, stream bool) (openai.ChatCompletionRequest, error) {
	messages, err := convertMessages(req.Messages, req.System)
	if err != nil {
		return openai.ChatCompletionRequest{}, fmt.Errorf("openai: converting messages: %w", err)
	}

	model := req.Model
	if model == "" {
		model = defaultModel
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = convertTools(req.Tools)
	}
	return chatReq, nil
}

// Complete issues a non-streaming chat completion, retrying transient
// failures with exponential backoff.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	chatReq, err := p.buildRequest(req, false)
	if err != nil {
		return llm.CompletionResponse{}, llm.NewError("openai", err)
	}

	var resp openai.ChatCompletionResponse
	var lastErr error
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return llm.CompletionResponse{}, llm.NewError("openai", ctx.Err())
			case <-time.After(retry.Backoff(attempt, p.retryDelay, 0, 2.0)):
			}
		}
		resp, lastErr = p.client.CreateChatCompletion(ctx, chatReq)
		if lastErr == nil {
			break
		}
		wrapped := llm.NewError("openai", lastErr)
		if !wrapped.Kind.IsRetryable() {
			return llm.CompletionResponse{}, wrapped
		}
	}
	if lastErr != nil {
		return llm.CompletionResponse{}, llm.NewError("openai", lastErr)
	}

	return toCompletionResponse(resp), nil
}

// CompleteStream issues a streaming chat completion, accumulating
// tool-call argument fragments by index and emitting the normalised
// StreamChunk protocol.
func (p *Provider) CompleteStream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	chatReq, err := p.buildRequest(req, true)
	if err != nil {
		return nil, llm.NewError("openai", err)
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, llm.NewError("openai", err)
	}

	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		defer stream.Close()

		type toolCall struct{ id, name, args string }
		calls := make(map[int]*toolCall)
		started := make(map[int]bool)
		out <- llm.StreamChunk{Kind: llm.ChunkMessageStart}

		for {
			select {
			case <-ctx.Done():
				out <- llm.StreamChunk{Kind: llm.ChunkError, ErrorMessage: ctx.Err().Error()}
				return
			default:
			}

			resp, err := stream.Recv()
			if err != nil {
				if err == io.EOF {
					out <- llm.StreamChunk{Kind: llm.ChunkMessageEnd, StopReason: llm.StopEndTurn}
					return
				}
				out <- llm.StreamChunk{Kind: llm.ChunkError, ErrorMessage: llm.NewError("openai", err).Error()}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			choice := resp.Choices[0]
			delta := choice.Delta

			if delta.Content != "" {
				out <- llm.StreamChunk{Kind: llm.ChunkTextDelta, Text: delta.Content}
			}

			for _, tc := range delta.ToolCalls {
				index := 0
				if tc.Index != nil {
					index = *tc.Index
				}
				if calls[index] == nil {
					calls[index] = &toolCall{}
				}
				if tc.ID != "" {
					calls[index].id = tc.ID
				}
				if tc.Function.Name != "" {
					calls[index].name = tc.Function.Name
				}
				if !started[index] && calls[index].id != "" && calls[index].name != "" {
					out <- llm.StreamChunk{Kind: llm.ChunkToolUseStart, ToolUseID: calls[index].id, ToolUseName: calls[index].name}
					started[index] = true
				}
				if tc.Function.Arguments != "" && started[index] {
					out <- llm.StreamChunk{Kind: llm.ChunkToolUseDelta, ToolUseID: calls[index].id, ToolUseDelta: tc.Function.Arguments}
				}
			}

			if choice.FinishReason != "" {
				for idx := range calls {
					if started[idx] {
						out <- llm.StreamChunk{Kind: llm.ChunkToolUseEnd, ToolUseID: calls[idx].id}
					}
				}
				out <- llm.StreamChunk{Kind: llm.ChunkMessageEnd, StopReason: llm.MapFinishReason(string(choice.FinishReason))}
				return
			}
		}
	}()

	return out, nil
}

// convertMessages maps session content.Message values to OpenAI's chat
// message format: assistant tool_use blocks become ToolCalls, tool
// messages split into one ChatCompletionMessage per ToolResult block.
func convertMessages(messages []content.Message, system string) ([]openai.ChatCompletionMessage, error) {
	result := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}

	for _, m := range messages {
		switch m.Role {
		case content.RoleSystem:
			result = append(result, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: m.TextContent()})

		case content.RoleUser:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
			var parts []openai.ChatMessagePart
			for _, b := range m.Content {
				switch b.Kind {
				case content.BlockText:
					parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: b.Text})
				case content.BlockImage:
					if b.Source != nil {
						url := b.Source.URL
						if b.Source.Kind == content.SourceBase64 {
							url = fmt.Sprintf("data:%s;base64,%s", b.MediaType, b.Source.Data)
						}
						parts = append(parts, openai.ChatMessagePart{
							Type:     openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{URL: url, Detail: openai.ImageURLDetailAuto},
						})
					}
				}
			}
			if len(parts) == 1 && parts[0].Type == openai.ChatMessagePartTypeText {
				msg.Content = parts[0].Text
			} else {
				msg.MultiContent = parts
			}
			result = append(result, msg)

		case content.RoleAssistant:
			msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.TextContent()}
			for _, b := range m.ToolUses() {
				msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
					ID:       b.ToolUseID,
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: b.ToolName, Arguments: string(b.ToolInput)},
				})
			}
			result = append(result, msg)

		case content.RoleTool:
			for _, b := range m.ToolResults() {
				text := b.ResultText
				if b.IsError && b.ResultError != "" {
					text = b.ResultError
				}
				result = append(result, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    text,
					ToolCallID: b.ToolUseRefID,
				})
			}
		}
	}

	return result, nil
}

// convertTools maps tool.Definition to OpenAI's function-calling schema.
// A tool whose declared schema fails to parse falls back to an empty
// object schema rather than failing the whole request.
func convertTools(defs []tool.Definition) []openai.Tool {
	out := make([]openai.Tool, len(defs))
	for i, def := range defs {
		var schema map[string]any
		if err := json.Unmarshal(def.Parameters, &schema); err != nil || schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  schema,
			},
		}
	}
	return out
}

func toCompletionResponse(resp openai.ChatCompletionResponse) llm.CompletionResponse {
	var text string
	var toolUses []content.ContentBlock
	var stop llm.StopReason
	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		text = choice.Message.Content
		stop = llm.MapFinishReason(string(choice.FinishReason))
		for _, tc := range choice.Message.ToolCalls {
			toolUses = append(toolUses, content.ToolUse(tc.ID, tc.Function.Name, json.RawMessage(tc.Function.Arguments)))
		}
	}

	return llm.CompletionResponse{
		ID:         resp.ID,
		Model:      resp.Model,
		Message:    llm.BuildAssistantMessage(resp.ID, text, toolUses),
		StopReason: stop,
		Usage: llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}
}

var _ llm.Provider = (*Provider)(nil)
