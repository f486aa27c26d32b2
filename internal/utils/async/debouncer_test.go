package async

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebounceOnlyNewestTriggerRuns(t *testing.T) {
	d := NewDebouncer()

	var ran atomic.Int32
	var last atomic.Int32
	for i := 1; i <= 5; i++ {
		i := i
		d.Debounce(context.Background(), 50*time.Millisecond, func(ctx context.Context) {
			ran.Add(1)
			last.Store(int32(i))
		})
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), ran.Load(), "only the last pending trigger may execute")
	assert.Equal(t, int32(5), last.Load())
}

func TestDebounceCancelStopsPendingAction(t *testing.T) {
	d := NewDebouncer()

	var ran atomic.Int32
	d.Debounce(context.Background(), 50*time.Millisecond, func(ctx context.Context) {
		ran.Add(1)
	})
	d.Cancel()

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), ran.Load())
}

func TestDebounceSupersededActionSeesCancellation(t *testing.T) {
	d := NewDebouncer()

	firstCancelled := make(chan struct{})
	started := make(chan struct{})
	d.Debounce(context.Background(), 10*time.Millisecond, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(firstCancelled)
	})

	<-started
	d.Debounce(context.Background(), 10*time.Millisecond, func(ctx context.Context) {})

	select {
	case <-firstCancelled:
	case <-time.After(time.Second):
		t.Fatal("in-flight action did not observe supersession")
	}
}

func TestDebounceRespectsParentContext(t *testing.T) {
	d := NewDebouncer()

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Int32
	d.Debounce(ctx, 50*time.Millisecond, func(ctx context.Context) {
		ran.Add(1)
	})
	cancel()

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), ran.Load())
}
