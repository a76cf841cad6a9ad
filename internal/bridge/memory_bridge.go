package bridge

import (
	"context"
	"strings"
	"sync"
)

// MemoryBridge is an in-process bus with the same contract as the Redis
// bridge. Publishes fan out synchronously to every matching pattern
// subscription on this instance.
type MemoryBridge struct {
	mu     sync.RWMutex
	subs   map[string][]chan *Event
	closed bool
}

func NewMemoryBridge() *MemoryBridge {
	return &MemoryBridge{
		subs: make(map[string][]chan *Event),
	}
}

func (b *MemoryBridge) Publish(ctx context.Context, channel string, event *Event) error {
	event.Channel = channel

	b.mu.RLock()
	defer b.mu.RUnlock()

	for pattern, chans := range b.subs {
		if !patternMatches(pattern, channel) {
			continue
		}
		for _, ch := range chans {
			select {
			case ch <- event:
			default:
				// Subscriber fell behind; drop rather than block.
			}
		}
	}
	return nil
}

func (b *MemoryBridge) SubscribePattern(ctx context.Context, pattern string) (<-chan *Event, error) {
	ch := make(chan *Event, 100)

	b.mu.Lock()
	b.subs[pattern] = append(b.subs[pattern], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(pattern, ch)
	}()

	return ch, nil
}

func (b *MemoryBridge) Unsubscribe(ctx context.Context, pattern string) error {
	b.mu.Lock()
	chans := b.subs[pattern]
	delete(b.subs, pattern)
	b.mu.Unlock()

	for _, ch := range chans {
		close(ch)
	}
	return nil
}

func (b *MemoryBridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, chans := range b.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
	b.subs = make(map[string][]chan *Event)
	return nil
}

func (b *MemoryBridge) remove(pattern string, target chan *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	chans := b.subs[pattern]
	for i, ch := range chans {
		if ch == target {
			b.subs[pattern] = append(chans[:i], chans[i+1:]...)
			close(ch)
			return
		}
	}
}

// patternMatches supports the single trailing-star globs the channel scheme
// uses.
func patternMatches(pattern, channel string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(channel, prefix)
	}
	return pattern == channel
}
