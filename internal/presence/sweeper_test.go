package presence

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingTracker struct {
	MemoryTracker
	sweeps atomic.Int64
}

func (t *countingTracker) SweepExpired(ctx context.Context, now time.Time) error {
	t.sweeps.Add(1)
	return nil
}

func TestSweeperTicksAndStops(t *testing.T) {
	tracker := &countingTracker{}
	s := NewSweeper(tracker, 10*time.Millisecond)

	s.Start(context.Background())

	deadline := time.After(time.Second)
	for tracker.sweeps.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("only %d sweeps within a second", tracker.sweeps.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	s.Stop()
	after := tracker.sweeps.Load()
	time.Sleep(30 * time.Millisecond)
	if tracker.sweeps.Load() != after {
		t.Error("sweeper kept ticking after Stop")
	}
}
