package domain

import (
	"sync"
	"time"
)

// Session binds one live connection to its authenticated identity and
// current room. The identity is verified before the session exists, so a
// Session never carries an empty username.
type Session struct {
	ID            string
	Username      string
	CurrentRoom   string
	ReplayHorizon int64 // highest room-message timestamp replayed on join
	CreatedAt     time.Time
	LastActiveAt  time.Time
	mu            sync.RWMutex
}

func NewSession(id, username string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Username:     username,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

func (s *Session) GetUsername() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Username
}

// JoinRoom records the session's current room and the replay horizon: the
// highest timestamp delivered by the join-time history replay. Live fan-out
// skips room messages at or below the horizon, which is exact because room
// timestamps are strictly monotonic.
func (s *Session) JoinRoom(room string, replayHorizon int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CurrentRoom = room
	s.ReplayHorizon = replayHorizon
	s.LastActiveAt = time.Now()
}

func (s *Session) LeaveRoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CurrentRoom = ""
	s.ReplayHorizon = 0
	s.LastActiveAt = time.Now()
}

func (s *Session) GetCurrentRoom() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CurrentRoom
}

func (s *Session) GetReplayHorizon() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ReplayHorizon
}

func (s *Session) IsInRoom() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CurrentRoom != ""
}

func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActiveAt = time.Now()
}
