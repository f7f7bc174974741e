package governance

import (
	"context"
	"testing"
	"time"
)

func TestBroker_ResolveApproves(t *testing.T) {
	b := NewBroker(0)

	ch, err := b.Open("step-1")
	if err != nil {
		t.Fatal(err)
	}

	go b.Resolve("step-1", true)

	approved, err := b.Wait(context.Background(), "step-1", ch)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if !approved {
		t.Error("expected approval")
	}
	if b.PendingCount() != 0 {
		t.Errorf("expected no pending decisions, got %d", b.PendingCount())
	}
}

func TestBroker_ResolveIdempotent(t *testing.T) {
	b := NewBroker(0)

	ch, err := b.Open("step-1")
	if err != nil {
		t.Fatal(err)
	}

	if !b.Resolve("step-1", false) {
		t.Error("first resolve should be consumed")
	}
	if b.Resolve("step-1", true) {
		t.Error("second resolve for the same id must be a no-op")
	}
	// A decision for an id with no pending request is also a no-op.
	if b.Resolve("unknown", true) {
		t.Error("resolve for unknown id must be a no-op")
	}

	approved, err := b.Wait(context.Background(), "step-1", ch)
	if err != nil {
		t.Fatal(err)
	}
	if approved {
		t.Error("expected the first (deny) decision to win")
	}
}

func TestBroker_DuplicateOpen(t *testing.T) {
	b := NewBroker(0)
	if _, err := b.Open("step-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Open("step-1"); err == nil {
		t.Error("expected error for duplicate pending id")
	}
}

func TestBroker_TimeoutDenies(t *testing.T) {
	b := NewBroker(10 * time.Millisecond)

	ch, err := b.Open("step-1")
	if err != nil {
		t.Fatal(err)
	}

	approved, err := b.Wait(context.Background(), "step-1", ch)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if approved {
		t.Error("timeout must deny")
	}

	// The abandoned slot is gone; a late decision is a no-op.
	if b.Resolve("step-1", true) {
		t.Error("late resolve after timeout must be a no-op")
	}
}

func TestBroker_ContextCancel(t *testing.T) {
	b := NewBroker(0)

	ch, err := b.Open("step-1")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	approved, err := b.Wait(ctx, "step-1", ch)
	if err == nil {
		t.Fatal("expected context error")
	}
	if approved {
		t.Error("cancellation must not approve")
	}
}
