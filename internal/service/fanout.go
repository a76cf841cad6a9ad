package service

import (
	"context"
	"sync"
	"time"

	"github.com/covechat/cove/internal/bridge"
	"github.com/covechat/cove/internal/domain"
	"github.com/covechat/cove/internal/hub"
	"github.com/covechat/cove/pkg/log"
)

// fanout runs one pattern subscription per channel class and delivers
// decoded messages to this instance's sessions. A dropped subscription is
// re-established after a short backoff; a malformed event is skipped.
type fanout struct {
	hub    *hub.Hub
	bridge bridge.Subscriber
	wg     sync.WaitGroup
}

const resubscribeBackoff = 2 * time.Second

func newFanout(h *hub.Hub, b bridge.Subscriber) *fanout {
	return &fanout{hub: h, bridge: b}
}

// Start subscribes both channel classes before returning, so nothing
// published after a successful Start can be missed.
func (f *fanout) Start(ctx context.Context) error {
	roomCh, err := f.bridge.SubscribePattern(ctx, bridge.RoomChannelPattern)
	if err != nil {
		return err
	}
	directCh, err := f.bridge.SubscribePattern(ctx, bridge.DirectChannelPattern)
	if err != nil {
		return err
	}

	f.wg.Add(2)
	go f.loop(ctx, bridge.RoomChannelPattern, roomCh, f.handleRoomEvent)
	go f.loop(ctx, bridge.DirectChannelPattern, directCh, f.handleDirectEvent)
	return nil
}

func (f *fanout) Wait() {
	f.wg.Wait()
}

func (f *fanout) loop(ctx context.Context, pattern string, events <-chan *bridge.Event, handle func(*bridge.Event)) {
	defer f.wg.Done()

	for {
		if cancelled := f.drain(ctx, events, handle); cancelled || ctx.Err() != nil {
			return
		}

		// Subscription dropped; retry until it comes back.
		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeBackoff):
		}

		var err error
		events, err = f.bridge.SubscribePattern(ctx, pattern)
		if err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldChannel, pattern).Msg("resubscribe failed, retrying")
			events = nil
		}
	}
}

// drain consumes events until the channel closes (false) or the context is
// cancelled (true).
func (f *fanout) drain(ctx context.Context, events <-chan *bridge.Event, handle func(*bridge.Event)) bool {
	if events == nil {
		return false
	}
	for {
		select {
		case <-ctx.Done():
			return true
		case event, ok := <-events:
			if !ok {
				return false
			}
			handle(event)
		}
	}
}

func (f *fanout) handleRoomEvent(event *bridge.Event) {
	var msg domain.RoomMessage
	if err := event.UnmarshalPayload(&msg); err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldChannel, event.Channel).Msg("malformed room event, skipping")
		return
	}

	payload, err := hub.Encode(domain.NewRoomMessageOut(&msg))
	if err != nil {
		return
	}
	f.hub.DeliverToRoom(msg.Room, msg.Timestamp, payload)
}

func (f *fanout) handleDirectEvent(event *bridge.Event) {
	var msg domain.DirectMessage
	if err := event.UnmarshalPayload(&msg); err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldChannel, event.Channel).Msg("malformed direct event, skipping")
		return
	}

	payload, err := hub.Encode(domain.NewPrivateMessageOut(&msg))
	if err != nil {
		return
	}
	f.hub.DeliverToConversation(msg.From, msg.To, payload)
}
