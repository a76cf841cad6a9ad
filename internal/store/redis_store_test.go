package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// newRedisTestStore skips the test when no Redis is reachable, so the suite
// runs without infrastructure and exercises the real backend when it is up.
func newRedisTestStore(t *testing.T) *RedisMessageStore {
	t.Helper()

	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}

	s, err := NewRedisMessageStore(client, Limits{RoomLogMax: 500, ConversationLogMax: 500})
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRedisRoomLogRoundTrip(t *testing.T) {
	s := newRedisTestStore(t)
	ctx := context.Background()

	room := "test-room-" + uuid.New().String()
	t.Cleanup(func() { s.client.Del(context.Background(), roomKey(room)) })

	for i := 0; i < 5; i++ {
		if _, err := s.AppendRoomMessage(ctx, room, "alice", fmt.Sprintf("msg-%d", i)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	msgs, err := s.RecentRoomMessages(ctx, room, 20)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 5 {
		t.Fatalf("got %d messages, want 5", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp <= msgs[i-1].Timestamp {
			t.Fatalf("timestamps not strictly increasing: %d then %d",
				msgs[i-1].Timestamp, msgs[i].Timestamp)
		}
	}
	if msgs[0].Text != "msg-0" || msgs[4].Text != "msg-4" {
		t.Errorf("messages out of order: first %q last %q", msgs[0].Text, msgs[4].Text)
	}
}

func TestRedisRoomLogTrimmed(t *testing.T) {
	client := newRedisTestStore(t).client
	s, err := NewRedisMessageStore(client, Limits{RoomLogMax: 3, ConversationLogMax: 3})
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}

	ctx := context.Background()
	room := "test-room-" + uuid.New().String()
	t.Cleanup(func() { client.Del(context.Background(), roomKey(room)) })

	for i := 0; i < 10; i++ {
		if _, err := s.AppendRoomMessage(ctx, room, "alice", fmt.Sprintf("msg-%d", i)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	msgs, err := s.RecentRoomMessages(ctx, room, 100)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("log holds %d messages, want cap of 3", len(msgs))
	}
	if msgs[0].Text != "msg-7" {
		t.Errorf("oldest retained = %q, want msg-7", msgs[0].Text)
	}
}

func TestRedisConversationHistorySymmetric(t *testing.T) {
	s := newRedisTestStore(t)
	ctx := context.Background()

	a := "test-a-" + uuid.New().String()[:8]
	b := "test-b-" + uuid.New().String()[:8]
	t.Cleanup(func() { s.client.Del(context.Background(), conversationKey(a, b)) })

	if _, err := s.AppendDirectMessage(ctx, a, b, "hello"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.AppendDirectMessage(ctx, b, a, "hi back"); err != nil {
		t.Fatalf("append: %v", err)
	}

	forward, err := s.ConversationHistory(ctx, a, b, 50)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	reverse, err := s.ConversationHistory(ctx, b, a, 50)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(forward) != 2 || len(reverse) != 2 {
		t.Fatalf("got %d and %d messages, want 2 and 2", len(forward), len(reverse))
	}
	for i := range forward {
		if forward[i] != reverse[i] {
			t.Errorf("history diverges at %d: %+v vs %+v", i, forward[i], reverse[i])
		}
	}
}
