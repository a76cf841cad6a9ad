package store

import (
	"sync"
	"time"
)

// logClock hands out per-log timestamps that never repeat or go backwards:
// max(now, last+1) in unix millis. Coincident appends and wall-clock skew
// both resolve to distinct, increasing values.
type logClock struct {
	mu   sync.Mutex
	last map[string]int64
	now  func() int64
}

func newLogClock() *logClock {
	return &logClock{
		last: make(map[string]int64),
		now:  func() int64 { return time.Now().UnixMilli() },
	}
}

func (c *logClock) next(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now()
	if last := c.last[key]; ts <= last {
		ts = last + 1
	}
	c.last[key] = ts
	return ts
}
