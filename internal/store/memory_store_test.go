package store

import (
	"context"
	"fmt"
	"testing"
)

func newTestStore(t *testing.T) *MemoryMessageStore {
	t.Helper()
	return NewMemoryMessageStore(Limits{RoomLogMax: 500, ConversationLogMax: 500})
}

func TestRoomMessagesOrderedAndMonotonic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		if _, err := s.AppendRoomMessage(ctx, "general", "alice", fmt.Sprintf("msg-%d", i)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	msgs, err := s.RecentRoomMessages(ctx, "general", 50)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 50 {
		t.Fatalf("got %d messages, want 50", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].Timestamp <= msgs[i-1].Timestamp {
			t.Fatalf("timestamps not strictly increasing at %d: %d then %d",
				i, msgs[i-1].Timestamp, msgs[i].Timestamp)
		}
	}
}

func TestRoomMessagesMonotonicUnderClockStall(t *testing.T) {
	s := newTestStore(t)
	// Freeze the clock so every append lands on the same wall-clock milli.
	s.clock.now = func() int64 { return 1700000000000 }

	ctx := context.Background()
	var last int64
	for i := 0; i < 10; i++ {
		msg, err := s.AppendRoomMessage(ctx, "general", "alice", "hi")
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if msg.Timestamp <= last {
			t.Fatalf("timestamp %d did not advance past %d", msg.Timestamp, last)
		}
		last = msg.Timestamp
	}
}

func TestTimestampsIndependentPerLog(t *testing.T) {
	s := newTestStore(t)
	s.clock.now = func() int64 { return 1700000000000 }

	ctx := context.Background()
	a, _ := s.AppendRoomMessage(ctx, "general", "alice", "hi")
	b, _ := s.AppendRoomMessage(ctx, "dev", "alice", "hi")
	if a.Timestamp != b.Timestamp {
		t.Errorf("first append in separate logs got %d and %d, want equal", a.Timestamp, b.Timestamp)
	}
}

func TestRecentRoomMessagesBounded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		s.AppendRoomMessage(ctx, "general", "alice", fmt.Sprintf("msg-%d", i))
	}

	msgs, err := s.RecentRoomMessages(ctx, "general", 20)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 20 {
		t.Fatalf("got %d messages, want 20", len(msgs))
	}
	if msgs[0].Text != "msg-5" {
		t.Errorf("oldest replayed message = %q, want msg-5", msgs[0].Text)
	}
	if msgs[19].Text != "msg-24" {
		t.Errorf("newest replayed message = %q, want msg-24", msgs[19].Text)
	}
}

func TestRecentRoomMessagesEmptyAndUnknownRoom(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msgs, err := s.RecentRoomMessages(ctx, "nowhere", 20)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("unknown room returned %d messages", len(msgs))
	}

	msgs, err = s.RecentRoomMessages(ctx, "nowhere", 0)
	if err != nil || len(msgs) != 0 {
		t.Errorf("limit 0 must return nothing, got %d messages, err %v", len(msgs), err)
	}
}

func TestRoomLogTrimmedAtCap(t *testing.T) {
	s := NewMemoryMessageStore(Limits{RoomLogMax: 10, ConversationLogMax: 10})
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		s.AppendRoomMessage(ctx, "general", "alice", fmt.Sprintf("msg-%d", i))
	}

	msgs, _ := s.RecentRoomMessages(ctx, "general", 100)
	if len(msgs) != 10 {
		t.Fatalf("log holds %d messages, want cap of 10", len(msgs))
	}
	if msgs[0].Text != "msg-20" {
		t.Errorf("oldest retained = %q, want msg-20", msgs[0].Text)
	}
}

func TestConversationHistorySymmetric(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.AppendDirectMessage(ctx, "alice", "bob", "hey bob")
	s.AppendDirectMessage(ctx, "bob", "alice", "hey alice")

	fromAlice, err := s.ConversationHistory(ctx, "alice", "bob", 50)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	fromBob, err := s.ConversationHistory(ctx, "bob", "alice", 50)
	if err != nil {
		t.Fatalf("history: %v", err)
	}

	if len(fromAlice) != 2 || len(fromBob) != 2 {
		t.Fatalf("got %d and %d messages, want 2 and 2", len(fromAlice), len(fromBob))
	}
	for i := range fromAlice {
		if fromAlice[i] != fromBob[i] {
			t.Errorf("history diverges at %d: %+v vs %+v", i, fromAlice[i], fromBob[i])
		}
	}
	if fromAlice[0].Text != "hey bob" || fromAlice[1].Text != "hey alice" {
		t.Errorf("history out of order: %+v", fromAlice)
	}
}

func TestConversationsIsolated(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.AppendDirectMessage(ctx, "alice", "bob", "for bob")
	s.AppendDirectMessage(ctx, "alice", "carol", "for carol")

	msgs, _ := s.ConversationHistory(ctx, "alice", "bob", 50)
	if len(msgs) != 1 || msgs[0].Text != "for bob" {
		t.Errorf("alice/bob history = %+v, want only the bob message", msgs)
	}
}
