package events

import (
	"context"
	"testing"
	"time"
)

func TestIsEndOnlyForMessageEndAndError(t *testing.T) {
	cases := []struct {
		e    AgentEvent
		want bool
	}{
		{MessageEnd("s1"), true},
		{Error("boom"), true},
		{MessageStart("s1"), false},
		{TextDelta("x"), false},
	}
	for _, c := range cases {
		if got := IsEnd(c.e); got != c.want {
			t.Fatalf("IsEnd(%+v) = %v, want %v", c.e, got, c.want)
		}
	}
}

func TestStreamSendBlocksWhenFullAndRespectsContext(t *testing.T) {
	s := NewStream(1)
	if err := s.Send(context.Background(), TextDelta("a")); err != nil {
		t.Fatalf("first send: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.Send(ctx, TextDelta("b"))
	if err == nil {
		t.Fatal("expected Send to block and time out on a full unconsumed channel")
	}
}

func TestStreamPreservesOrder(t *testing.T) {
	s := NewStream(10)
	ctx := context.Background()
	want := []AgentEvent{MessageStart("s1"), TextDelta("a"), TextDelta("b"), MessageEnd("s1")}
	for _, e := range want {
		if err := s.Send(ctx, e); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	s.Close()

	var got []AgentEvent
	for e := range s.Receive() {
		got = append(got, e)
	}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Kind != want[i].Kind {
			t.Fatalf("event %d kind = %q, want %q", i, got[i].Kind, want[i].Kind)
		}
	}
}
