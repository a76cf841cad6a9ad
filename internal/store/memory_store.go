package store

import (
	"context"
	"sync"

	"github.com/covechat/cove/internal/domain"
)

// MemoryMessageStore is the in-process backend: same contract as the Redis
// store, state scoped to one instance. Used for single-node deployments and
// tests.
type MemoryMessageStore struct {
	mu            sync.RWMutex
	rooms         map[string][]domain.RoomMessage
	conversations map[string][]domain.DirectMessage
	limits        Limits
	clock         *logClock
}

func NewMemoryMessageStore(limits Limits) *MemoryMessageStore {
	return &MemoryMessageStore{
		rooms:         make(map[string][]domain.RoomMessage),
		conversations: make(map[string][]domain.DirectMessage),
		limits:        limits,
		clock:         newLogClock(),
	}
}

func (s *MemoryMessageStore) AppendRoomMessage(ctx context.Context, room, sender, text string) (*domain.RoomMessage, error) {
	key := roomKey(room)
	msg := domain.RoomMessage{
		Username:  sender,
		Room:      room,
		Text:      text,
		Timestamp: s.clock.next(key),
	}

	s.mu.Lock()
	log := append(s.rooms[room], msg)
	if max := s.limits.RoomLogMax; max > 0 && len(log) > max {
		log = log[len(log)-max:]
	}
	s.rooms[room] = log
	s.mu.Unlock()

	return &msg, nil
}

func (s *MemoryMessageStore) AppendDirectMessage(ctx context.Context, sender, recipient, text string) (*domain.DirectMessage, error) {
	key := domain.ConversationKey(sender, recipient)
	msg := domain.DirectMessage{
		From:      sender,
		To:        recipient,
		Text:      text,
		Timestamp: s.clock.next(conversationKey(sender, recipient)),
	}

	s.mu.Lock()
	log := append(s.conversations[key], msg)
	if max := s.limits.ConversationLogMax; max > 0 && len(log) > max {
		log = log[len(log)-max:]
	}
	s.conversations[key] = log
	s.mu.Unlock()

	return &msg, nil
}

func (s *MemoryMessageStore) RecentRoomMessages(ctx context.Context, room string, limit int) ([]domain.RoomMessage, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.rooms[room]
	if len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]domain.RoomMessage, len(log))
	copy(out, log)
	return out, nil
}

func (s *MemoryMessageStore) ConversationHistory(ctx context.Context, a, b string, limit int) ([]domain.DirectMessage, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.conversations[domain.ConversationKey(a, b)]
	if len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]domain.DirectMessage, len(log))
	copy(out, log)
	return out, nil
}

func (s *MemoryMessageStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryMessageStore) Close() error { return nil }
