package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-kit/log"
)

func TestRunFiresFirstCycleAfterGrace(t *testing.T) {
	var runs atomic.Int32
	s := New(10*time.Millisecond, time.Hour, log.NewNopLogger(), func(context.Context) {
		runs.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("first cycle never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
	if runs.Load() != 1 {
		t.Errorf("expected exactly 1 cycle, got %d", runs.Load())
	}
}

func TestRunRepeatsOnInterval(t *testing.T) {
	var runs atomic.Int32
	s := New(1*time.Millisecond, 10*time.Millisecond, log.NewNopLogger(), func(context.Context) {
		runs.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 cycles, got %d", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestRunStopsBeforeFirstCycleWhenCancelled(t *testing.T) {
	var runs atomic.Int32
	s := New(time.Hour, time.Hour, log.NewNopLogger(), func(context.Context) {
		runs.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if runs.Load() != 0 {
		t.Errorf("cycle ran despite cancellation, %d times", runs.Load())
	}
}

func TestRunPropagatesContextToCycle(t *testing.T) {
	got := make(chan context.Context, 1)
	s := New(1*time.Millisecond, time.Hour, log.NewNopLogger(), func(ctx context.Context) {
		got <- ctx
	})

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	var cycleCtx context.Context
	select {
	case cycleCtx = <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("cycle never ran")
	}

	cancel()
	select {
	case <-cycleCtx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("cancellation did not propagate into the cycle context")
	}
}
