// Package async holds the small concurrency primitives shared by the
// statement session: a single-slot mutual-exclusion gate and a
// cancel-and-restart debouncer.
package async

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate is a single-slot mutual-exclusion gate (binary semaphore semantics).
// Acquire blocks until the slot is free or the context is cancelled; Release
// must be called on every exit path, including cancellation.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate creates a gate with one free slot.
func NewGate() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Acquire takes the slot, blocking until it is free. It returns the context's
// error if ctx is cancelled while waiting.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// TryAcquire takes the slot without blocking and reports whether it succeeded.
func (g *Gate) TryAcquire() bool {
	return g.sem.TryAcquire(1)
}

// Release frees the slot. Calling Release without a matching Acquire panics.
func (g *Gate) Release() {
	g.sem.Release(1)
}
