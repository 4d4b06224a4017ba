package agentloop

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/basalt-run/agentkit/internal/llm"
	"github.com/basalt-run/agentkit/internal/session"
	"github.com/basalt-run/agentkit/internal/tool"
	"github.com/basalt-run/agentkit/pkg/content"
)

type scriptedProvider struct {
	responses []llm.CompletionResponse
	errs      []error
	calls     int
}

func (p *scriptedProvider) Name() string                      { return "scripted" }
func (p *scriptedProvider) Capabilities() llm.CapabilitySet    { return llm.NewCapabilitySet() }
func (p *scriptedProvider) DefaultModel() string               { return "scripted-model" }
func (p *scriptedProvider) ListModels(context.Context) ([]llm.ModelInfo, error) { return nil, nil }
func (p *scriptedProvider) HealthCheck(context.Context) error  { return nil }
func (p *scriptedProvider) CompleteStream(context.Context, llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	return nil, errors.New("not implemented")
}

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return llm.CompletionResponse{}, p.errs[i]
	}
	return p.responses[i], nil
}

type echoTool struct{}

func (echoTool) Definition() tool.Definition {
	return tool.Definition{Name: "echo", Description: "echoes input"}
}
func (echoTool) Execute(ctx context.Context, input json.RawMessage) (tool.Output, error) {
	return tool.Output{Content: string(input)}, nil
}

func textResponse(text string) llm.CompletionResponse {
	return llm.CompletionResponse{Message: content.NewMessage("m", content.RoleAssistant, content.Text(text))}
}

func toolUseResponse(text, toolUseID, toolName string, input json.RawMessage) llm.CompletionResponse {
	return llm.CompletionResponse{
		Message: llm.BuildAssistantMessage("m", text, []content.ContentBlock{content.ToolUse(toolUseID, toolName, input)}),
	}
}

func TestRunNoToolsCompletesOnFirstIteration(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.CompletionResponse{textResponse("hello there")}}
	loop := New(provider, nil, Config{})
	sess := session.New("")

	resp, err := loop.Run(context.Background(), sess, "hi")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resp.Text != "hello there" || resp.Iterations != 1 {
		t.Fatalf("Run() = %+v, want text=hello there iterations=1", resp)
	}
	if sess.Len() != 2 {
		t.Fatalf("session length = %d, want 2 (user + assistant)", sess.Len())
	}
}

func TestRunExecutesToolThenCompletes(t *testing.T) {
	registry := tool.NewRegistry()
	if err := registry.Register(echoTool{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	provider := &scriptedProvider{responses: []llm.CompletionResponse{
		toolUseResponse("", "t1", "echo", json.RawMessage(`{"x":1}`)),
		textResponse("done"),
	}}
	loop := New(provider, registry, Config{})
	sess := session.New("")

	resp, err := loop.Run(context.Background(), sess, "run echo")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if resp.Text != "done" || resp.Iterations != 2 {
		t.Fatalf("Run() = %+v, want text=done iterations=2", resp)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "echo" {
		t.Fatalf("ToolCalls = %+v, want one echo record", resp.ToolCalls)
	}
	if sess.Stats().ToolCallCount != 1 {
		t.Fatalf("ToolCallCount = %d, want 1", sess.Stats().ToolCallCount)
	}
}

func TestRunWithoutRegistryRecordsUnavailable(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.CompletionResponse{
		toolUseResponse("", "t1", "missing", json.RawMessage(`{}`)),
		textResponse("done"),
	}}
	loop := New(provider, nil, Config{})
	sess := session.New("")

	resp, err := loop.Run(context.Background(), sess, "hi")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(resp.ToolCalls) != 1 || !resp.ToolCalls[0].IsError {
		t.Fatalf("ToolCalls = %+v, want one error record", resp.ToolCalls)
	}
}

func TestRunProviderErrorAbortsWithPartialSessionIntact(t *testing.T) {
	provider := &scriptedProvider{errs: []error{errors.New("boom")}}
	loop := New(provider, nil, Config{})
	sess := session.New("")

	_, err := loop.Run(context.Background(), sess, "hi")
	if err == nil {
		t.Fatal("expected error")
	}
	var loopErr *LoopError
	if !errors.As(err, &loopErr) || loopErr.Phase != PhaseComplete {
		t.Fatalf("error = %v, want LoopError at PhaseComplete", err)
	}
	if sess.Len() != 1 {
		t.Fatalf("session length = %d, want 1 (user message retained)", sess.Len())
	}
}

func TestRunMaxIterationsIsFatalWithNoFinalMessage(t *testing.T) {
	responses := make([]llm.CompletionResponse, 0, 3)
	for i := 0; i < 3; i++ {
		responses = append(responses, toolUseResponse("", "t1", "echo", json.RawMessage(`{}`)))
	}
	registry := tool.NewRegistry()
	_ = registry.Register(echoTool{})
	provider := &scriptedProvider{responses: responses}
	loop := New(provider, registry, Config{MaxIterations: 2})
	sess := session.New("")

	_, err := loop.Run(context.Background(), sess, "hi")
	if !errors.Is(err, ErrMaxIterations) {
		t.Fatalf("error = %v, want ErrMaxIterations", err)
	}
}
