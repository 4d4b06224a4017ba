package events

import (
	"context"
	"errors"
	"testing"

	"github.com/basalt-run/agentkit/internal/agentloop"
	"github.com/basalt-run/agentkit/internal/llm"
	"github.com/basalt-run/agentkit/internal/session"
	"github.com/basalt-run/agentkit/pkg/content"
)

type fakeProvider struct {
	text string
	err  error
}

func (p *fakeProvider) Name() string                   { return "fake" }
func (p *fakeProvider) Capabilities() llm.CapabilitySet { return llm.NewCapabilitySet() }
func (p *fakeProvider) DefaultModel() string            { return "fake-model" }
func (p *fakeProvider) ListModels(context.Context) ([]llm.ModelInfo, error) { return nil, nil }
func (p *fakeProvider) HealthCheck(context.Context) error { return nil }
func (p *fakeProvider) CompleteStream(context.Context, llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	return nil, errors.New("not implemented")
}
func (p *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
	if p.err != nil {
		return llm.CompletionResponse{}, p.err
	}
	return llm.CompletionResponse{Message: content.NewMessage("m", content.RoleAssistant, content.Text(p.text))}, nil
}

func TestRunMinimalSuccessSequence(t *testing.T) {
	loop := agentloop.New(&fakeProvider{text: "hi there"}, nil, agentloop.Config{})
	sess := session.New("s1")
	stream := NewStream(10)

	go RunMinimal(context.Background(), loop, sess, "hello", stream)

	var got []AgentEvent
	for e := range stream.Receive() {
		got = append(got, e)
	}

	if len(got) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(got), got)
	}
	if got[0].Kind != KindMessageStart || got[1].Kind != KindTextComplete || got[2].Kind != KindMessageEnd {
		t.Fatalf("sequence = %+v, want start/text_complete/end", got)
	}
	if got[1].Text != "hi there" {
		t.Fatalf("TextComplete.Text = %q, want %q", got[1].Text, "hi there")
	}
	if !IsEnd(got[2]) {
		t.Fatal("final event is not a terminal event")
	}
}

func TestRunMinimalFailureSequence(t *testing.T) {
	loop := agentloop.New(&fakeProvider{err: errors.New("boom")}, nil, agentloop.Config{})
	sess := session.New("s1")
	stream := NewStream(10)

	go RunMinimal(context.Background(), loop, sess, "hello", stream)

	var got []AgentEvent
	for e := range stream.Receive() {
		got = append(got, e)
	}

	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(got), got)
	}
	if got[0].Kind != KindMessageStart || got[1].Kind != KindError {
		t.Fatalf("sequence = %+v, want start/error", got)
	}
	if !IsEnd(got[1]) {
		t.Fatal("final event is not a terminal event")
	}
}
