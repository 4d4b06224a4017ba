package agentloop

import (
	"context"
	"time"

	"github.com/basalt-run/agentkit/internal/id"
	"github.com/basalt-run/agentkit/internal/llm"
	"github.com/basalt-run/agentkit/internal/session"
	"github.com/basalt-run/agentkit/internal/tool"
	"github.com/basalt-run/agentkit/internal/toolexec"
	"github.com/basalt-run/agentkit/pkg/content"
)

// Config is the per-agent configuration of spec §6.
type Config struct {
	Name         string
	SystemPrompt string
	Model        string
	Temperature  float64
	MaxTokens    int // 0 means unset

	MaxIterations       int
	MaxContextMessages  int
	ToolTimeoutSecs     int
	ToolsEnabled        bool
}

// DefaultConfig returns the spec §6 defaults layered under a caller's
// partial Config.
func DefaultConfig() Config {
	return Config{
		MaxIterations:      10,
		MaxContextMessages: 50,
		ToolTimeoutSecs:    60,
		ToolsEnabled:       true,
	}
}

// sanitize fills zero-valued fields with DefaultConfig's values, the way
// the teacher's sanitizeLoopConfig layers defaults onto a caller config.
func sanitize(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaults.MaxIterations
	}
	if cfg.MaxContextMessages <= 0 {
		cfg.MaxContextMessages = defaults.MaxContextMessages
	}
	if cfg.ToolTimeoutSecs <= 0 {
		cfg.ToolTimeoutSecs = defaults.ToolTimeoutSecs
	}
	return cfg
}

// ToolRecord is one entry of the tool-use record accumulated across a run,
// surfaced in the HTTP response's tool_calls array (spec §4.6).
type ToolRecord struct {
	ID         string
	Name       string
	Output     string
	DurationMS int64
	IsError    bool
}

// Response is the loop's result on successful completion.
type Response struct {
	Text       string
	ToolCalls  []ToolRecord
	Iterations int
}

// Loop is the agent executor of spec §4.4.
type Loop struct {
	provider llm.Provider
	registry *tool.Registry
	executor *toolexec.Executor
	config   Config
}

// New constructs a Loop. registry may be nil, in which case tool_uses the
// model emits are recorded as "Tool execution not available" per spec
// §4.4's execute_tools fallback.
func New(provider llm.Provider, registry *tool.Registry, config Config) *Loop {
	config = sanitize(config)
	var executor *toolexec.Executor
	if registry != nil {
		executor = toolexec.New(registry, time.Duration(config.ToolTimeoutSecs)*time.Second)
	}
	return &Loop{provider: provider, registry: registry, executor: executor, config: config}
}

// Run executes the algorithm of spec §4.4 against sess, appending the user
// message and every subsequent assistant/tool message to the session log
// as it goes.
func (l *Loop) Run(ctx context.Context, sess *session.Session, userText string) (Response, error) {
	sess.AddMessage(content.NewMessage(id.New().String(), content.RoleUser, content.Text(userText)))

	var toolRecord []ToolRecord
	iterations := 0

	for {
		iterations++
		sess.IncrementIterations()
		if iterations > l.config.MaxIterations {
			return Response{}, &LoopError{Phase: PhaseInit, Iteration: iterations, Cause: ErrMaxIterations}
		}

		req := l.buildRequest(sess)
		resp, err := l.provider.Complete(ctx, req)
		if err != nil {
			return Response{}, &LoopError{Phase: PhaseComplete, Iteration: iterations, Cause: err}
		}

		toolUses := resp.Message.ToolUses()
		if len(toolUses) == 0 {
			text := resp.Message.TextContent()
			sess.AddMessage(content.NewMessage(id.New().String(), content.RoleAssistant, content.Text(text)))
			return Response{Text: text, ToolCalls: toolRecord, Iterations: iterations}, nil
		}

		blocks := assistantTurnBlocks(resp.Message.TextContent(), toolUses)
		sess.AddMessage(content.NewMessage(id.New().String(), content.RoleAssistant, blocks...))

		outputs := l.executeTools(ctx, toolUses)
		sess.IncrementToolCalls(len(outputs))
		toolRecord = append(toolRecord, outputs...)

		var resultBlocks []content.ContentBlock
		for i, tu := range toolUses {
			out := outputs[i]
			resultBlocks = append(resultBlocks, content.ToolResult(tu.ToolUseID, out.Output, out.IsError))
		}
		sess.AddMessage(content.NewMessage(id.New().String(), content.RoleTool, resultBlocks...))
	}
}

func assistantTurnBlocks(text string, toolUses []content.ContentBlock) []content.ContentBlock {
	var blocks []content.ContentBlock
	if text != "" {
		blocks = append(blocks, content.Text(text))
	}
	blocks = append(blocks, toolUses...)
	return blocks
}

// buildRequest selects last_messages(max_context_messages), attaches
// system/temperature/max_tokens, and — when tools are enabled and a
// non-empty registry is present — every tool Definition, leaving
// ToolChoice unset (defaults to auto).
func (l *Loop) buildRequest(sess *session.Session) llm.CompletionRequest {
	req := llm.CompletionRequest{
		Model:       l.config.Model,
		Messages:    sess.LastMessages(l.config.MaxContextMessages),
		System:      l.config.SystemPrompt,
		Temperature: l.config.Temperature,
		MaxTokens:   l.config.MaxTokens,
	}
	if l.config.ToolsEnabled && l.registry != nil && l.registry.Len() > 0 {
		req.Tools = l.registry.Definitions()
	}
	return req
}

// executeTools dispatches every tool-use sequentially against a single
// shared deadline, per spec §4.4/§5.
func (l *Loop) executeTools(ctx context.Context, toolUses []content.ContentBlock) []ToolRecord {
	out := make([]ToolRecord, len(toolUses))

	if l.executor == nil {
		for i, tu := range toolUses {
			out[i] = ToolRecord{ID: tu.ToolUseID, Name: tu.ToolName, Output: "Tool execution not available: " + tu.ToolName, IsError: true}
		}
		return out
	}

	deadline := time.Duration(l.config.ToolTimeoutSecs) * time.Second
	toolCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	calls := make([]toolexec.Call, len(toolUses))
	for i, tu := range toolUses {
		calls[i] = toolexec.Call{ID: tu.ToolUseID, Name: tu.ToolName, Input: tu.ToolInput}
	}

	results := l.executor.ExecuteSequentially(toolCtx, calls)
	for i, r := range results {
		out[i] = ToolRecord{
			ID:         calls[i].ID,
			Name:       r.ToolName,
			Output:     r.Output.Content,
			DurationMS: r.Duration().Milliseconds(),
			IsError:    r.Status != toolexec.StatusSuccess || r.Output.IsError,
		}
	}
	return out
}
