package bridge

import (
	"context"
	"encoding/json"
	"time"
)

// Event is the wire envelope for accepted messages crossing instances.
type Event struct {
	Type      string          `json:"type"`
	Channel   string          `json:"channel"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent wraps a payload for publishing.
func NewEvent(eventType, channel string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Channel:   channel,
		Payload:   data,
		Timestamp: time.Now(),
	}, nil
}

// UnmarshalPayload unmarshals the event payload into the given struct.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Publisher publishes events to the bridge. Fire-and-forget: delivery to
// subscribers is at-least-once, best-effort.
type Publisher interface {
	Publish(ctx context.Context, channel string, event *Event) error
}

// Subscriber receives events from the bridge.
type Subscriber interface {
	// SubscribePattern subscribes to all channels matching a glob pattern.
	// The returned channel closes when the subscription ends.
	SubscribePattern(ctx context.Context, pattern string) (<-chan *Event, error)
	Unsubscribe(ctx context.Context, pattern string) error
}

// Bridge decouples "a message was accepted" from "a message was delivered to
// every connected session", letting instances share one logical chat state.
type Bridge interface {
	Publisher
	Subscriber
	Close() error
}
