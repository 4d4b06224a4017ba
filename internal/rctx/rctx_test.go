package rctx

import (
	"context"
	"testing"
	"time"
)

func TestNewSeedsIdentityAndStartedAt(t *testing.T) {
	ctx := New(context.Background(), "req-1")
	if RequestID(ctx) != "req-1" {
		t.Fatalf("RequestID() = %q, want req-1", RequestID(ctx))
	}
	if StartedAt(ctx).IsZero() {
		t.Fatal("StartedAt() is zero, want seeded timestamp")
	}
}

func TestRemainingWithoutDeadlineIsLarge(t *testing.T) {
	ctx := New(context.Background(), "req-1")
	if Remaining(ctx) < time.Hour {
		t.Fatalf("Remaining() = %v, want a very large duration with no deadline", Remaining(ctx))
	}
}

func TestWithTimeoutClampsRemaining(t *testing.T) {
	ctx := New(context.Background(), "req-1")
	ctx, cancel := WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if Remaining(ctx) > 50*time.Millisecond {
		t.Fatalf("Remaining() = %v, want <= 50ms", Remaining(ctx))
	}
}

func TestIsCancelledReflectsParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx := New(parent, "req-1")
	if IsCancelled(ctx) {
		t.Fatal("IsCancelled() = true before cancel")
	}
	cancel()
	if !IsCancelled(ctx) {
		t.Fatal("IsCancelled() = false after parent cancel")
	}
}

func TestChildInheritsDeadlineAndCancellation(t *testing.T) {
	parent, cancel := context.WithTimeout(New(context.Background(), "req-1"), 20*time.Millisecond)
	defer cancel()
	child := Child(parent)
	if _, ok := child.Deadline(); !ok {
		t.Fatal("Child() did not inherit deadline")
	}
	cancel()
	if !IsCancelled(child) {
		t.Fatal("Child() not cancelled when parent cancelled")
	}
}

func TestExtensionRoundTrip(t *testing.T) {
	ctx := New(context.Background(), "req-1")
	Extension(ctx, "k", 42)
	v, ok := ExtensionValue(ctx, "k")
	if !ok || v.(int) != 42 {
		t.Fatalf("ExtensionValue() = %v, %v, want 42, true", v, ok)
	}
	if _, ok := ExtensionValue(ctx, "missing"); ok {
		t.Fatal("ExtensionValue() found a key that was never set")
	}
}
