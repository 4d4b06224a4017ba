package main

import (
	"context"
	"strings"
	"testing"

	"github.com/basalt-run/agentkit/internal/agentloop"
	"github.com/basalt-run/agentkit/internal/config"
	"github.com/basalt-run/agentkit/internal/llm"
	"github.com/basalt-run/agentkit/internal/observability"
	"github.com/basalt-run/agentkit/pkg/content"
)

// fakeProvider is a minimal llm.Provider test double, echoing the given
// text back as the assistant's reply regardless of the request.
type fakeProvider struct{ text string }

func (f *fakeProvider) Name() string                   { return "fake" }
func (f *fakeProvider) DefaultModel() string            { return "fake-model" }
func (f *fakeProvider) Capabilities() llm.CapabilitySet { return llm.NewCapabilitySet() }

func (f *fakeProvider) ListModels(ctx context.Context) ([]llm.ModelInfo, error) { return nil, nil }
func (f *fakeProvider) HealthCheck(ctx context.Context) error                  { return nil }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	msg := content.NewMessage("m", content.RoleAssistant, content.Text(f.text))
	return llm.CompletionResponse{Message: msg}, nil
}

func (f *fakeProvider) CompleteStream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	return nil, nil
}

func newTestAgent(text string) *loadedAgent {
	loop := agentloop.New(&fakeProvider{text: text}, nil, agentloop.Config{Name: "tester"})
	return &loadedAgent{
		cfg:    &config.Config{Agent: config.AgentConfig{Name: "tester"}},
		loop:   loop,
		logger: observability.NewLogger(observability.LogConfig{Level: "error", Format: "json"}),
	}
}

func TestRunChatREPLEchoesResponsesUntilQuit(t *testing.T) {
	agent := newTestAgent("hello there")
	in := strings.NewReader("hi\nquit\n")
	var out strings.Builder

	if err := runChatREPL(context.Background(), agent, in, &out); err != nil {
		t.Fatalf("runChatREPL: %v", err)
	}

	if !strings.Contains(out.String(), "hello there") {
		t.Fatalf("output = %q, want it to contain the agent's reply", out.String())
	}
}

func TestRunChatREPLExitsCleanlyOnEOF(t *testing.T) {
	agent := newTestAgent("ignored")
	in := strings.NewReader("")
	var out strings.Builder

	if err := runChatREPL(context.Background(), agent, in, &out); err != nil {
		t.Fatalf("runChatREPL: %v", err)
	}
}

func TestRunChatREPLSkipsBlankLines(t *testing.T) {
	agent := newTestAgent("reply")
	in := strings.NewReader("\n\nexit\n")
	var out strings.Builder

	if err := runChatREPL(context.Background(), agent, in, &out); err != nil {
		t.Fatalf("runChatREPL: %v", err)
	}
	if strings.Contains(out.String(), "reply") {
		t.Fatalf("blank lines should not reach the agent, got output %q", out.String())
	}
}
