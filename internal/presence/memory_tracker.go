package presence

import (
	"context"
	"sync"
	"time"
)

// MemoryTracker is the in-process presence backend.
type MemoryTracker struct {
	mu     sync.RWMutex
	seen   map[string]int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryTracker(window time.Duration) *MemoryTracker {
	return &MemoryTracker{
		seen:   make(map[string]int64),
		window: window,
		now:    time.Now,
	}
}

func (t *MemoryTracker) Touch(ctx context.Context, identity string) error {
	ts := t.now().UnixMilli()

	t.mu.Lock()
	if ts > t.seen[identity] {
		t.seen[identity] = ts
	}
	t.mu.Unlock()
	return nil
}

func (t *MemoryTracker) ListOnline(ctx context.Context) ([]string, error) {
	cutoff := t.now().Add(-t.window).UnixMilli()

	t.mu.RLock()
	defer t.mu.RUnlock()

	online := make([]string, 0, len(t.seen))
	for identity, ts := range t.seen {
		if ts >= cutoff {
			online = append(online, identity)
		}
	}
	return online, nil
}

func (t *MemoryTracker) SweepExpired(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-t.window).UnixMilli()

	t.mu.Lock()
	for identity, ts := range t.seen {
		if ts < cutoff {
			delete(t.seen, identity)
		}
	}
	t.mu.Unlock()
	return nil
}

func (t *MemoryTracker) Close() error { return nil }
