package governance

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DeniedReason is the terminal error recorded on a step whose approval
// was refused or timed out.
const DeniedReason = "denied by user"

// Broker is the approval gate: it converts a risk-classified step into
// a suspending human yes/no decision. Each broker belongs to one
// orchestrator instance; pending decisions are keyed by step id so two
// tasks can never interfere through shared state.
//
// The execution model guarantees at most one request is outstanding at
// a time, and exactly one decision is consumed per step id. Late or
// duplicate decisions are no-ops.
type Broker struct {
	mu      sync.Mutex
	pending map[string]chan bool

	// Timeout bounds how long a request may wait for a decision.
	// Zero means wait indefinitely; on expiry the step is denied.
	Timeout time.Duration
}

func NewBroker(timeout time.Duration) *Broker {
	return &Broker{
		pending: make(map[string]chan bool),
		Timeout: timeout,
	}
}

// Open registers a pending decision for the step and returns the
// channel the decision will arrive on. It fails if a decision for the
// same step id is already pending.
func (b *Broker) Open(stepID string) (<-chan bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.pending[stepID]; ok {
		return nil, fmt.Errorf("approval already pending for step %s", stepID)
	}

	ch := make(chan bool, 1)
	b.pending[stepID] = ch
	return ch, nil
}

// Resolve delivers a decision for a pending step. It reports whether
// the decision was consumed; resolving an unknown or already-resolved
// step id is a no-op.
func (b *Broker) Resolve(stepID string, approved bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.pending[stepID]
	if !ok {
		return false
	}
	delete(b.pending, stepID)
	ch <- approved
	return true
}

// Wait suspends until the decision for stepID arrives, the broker
// timeout expires, or ctx is cancelled. Timeout denies; cancellation
// returns the context error.
func (b *Broker) Wait(ctx context.Context, stepID string, ch <-chan bool) (bool, error) {
	var expired <-chan time.Time
	if b.Timeout > 0 {
		timer := time.NewTimer(b.Timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case approved := <-ch:
		return approved, nil
	case <-expired:
		b.abandon(stepID)
		return false, nil
	case <-ctx.Done():
		b.abandon(stepID)
		return false, ctx.Err()
	}
}

// abandon drops the pending entry so a late Resolve becomes a no-op.
func (b *Broker) abandon(stepID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, stepID)
}

// PendingCount reports how many decisions are outstanding.
func (b *Broker) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
