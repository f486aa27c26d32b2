package async

import (
	"context"
	"sync"
	"time"
)

// Debouncer coalesces rapid triggers into a single delayed action. Each call
// to Debounce cancels the previous pending delay and any in-flight action, so
// only the newest trigger ever runs to completion. The delay and the action
// share one context, keeping cancellation composable with whatever the action
// awaits underneath.
type Debouncer struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewDebouncer creates an idle debouncer.
func NewDebouncer() *Debouncer {
	return &Debouncer{}
}

// Debounce schedules action to run after delay. A newer call, or Cancel,
// cancels the pending delay; if the action is already running it receives the
// cancellation through its context. The action is responsible for swallowing
// context.Canceled.
func (d *Debouncer) Debounce(ctx context.Context, delay time.Duration, action func(context.Context)) {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.mu.Unlock()

	go func() {
		defer cancel()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-runCtx.Done():
			return
		case <-timer.C:
		}

		action(runCtx)
	}()
}

// Cancel aborts the pending delay and any in-flight action.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
