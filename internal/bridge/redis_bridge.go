package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBridge implements the Bridge over Redis pub/sub.
type RedisBridge struct {
	client        *redis.Client
	subscriptions map[string]*redis.PubSub
	mu            sync.RWMutex
}

func NewRedisBridge(client *redis.Client) (*RedisBridge, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisBridge{
		client:        client,
		subscriptions: make(map[string]*redis.PubSub),
	}, nil
}

func (b *RedisBridge) Publish(ctx context.Context, channel string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return b.client.Publish(ctx, channel, data).Err()
}

func (b *RedisBridge) SubscribePattern(ctx context.Context, pattern string) (<-chan *Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pubsub := b.client.PSubscribe(ctx, pattern)

	// Wait for the subscription to be active so nothing published after
	// this call returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", pattern, err)
	}

	b.subscriptions[pattern] = pubsub

	eventCh := make(chan *Event, 100)
	go b.processMessages(ctx, pubsub, eventCh)

	return eventCh, nil
}

func (b *RedisBridge) Unsubscribe(ctx context.Context, pattern string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if pubsub, ok := b.subscriptions[pattern]; ok {
		if err := pubsub.Close(); err != nil {
			return err
		}
		delete(b.subscriptions, pattern)
	}
	return nil
}

func (b *RedisBridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, pubsub := range b.subscriptions {
		pubsub.Close()
	}
	b.subscriptions = make(map[string]*redis.PubSub)

	return b.client.Close()
}

func (b *RedisBridge) processMessages(ctx context.Context, pubsub *redis.PubSub, eventCh chan<- *Event) {
	defer close(eventCh)

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			event.Channel = msg.Channel

			select {
			case eventCh <- &event:
			case <-ctx.Done():
				return
			}
		}
	}
}
