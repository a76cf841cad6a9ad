package domain

import (
	"sort"
	"strings"
	"time"
)

// RoomMessage is a broadcast message stored in a room log. Timestamp is
// assigned by the message store at acceptance time (unix millis) and doubles
// as the message id within its log.
type RoomMessage struct {
	Username  string `json:"username"`
	Room      string `json:"room"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// DirectMessage is a two-party message stored in a conversation log.
type DirectMessage struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Room describes a named channel.
type Room struct {
	Name      string    `json:"name"`
	Private   bool      `json:"private"`
	Creator   string    `json:"creator"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultRoom is registered at startup and is where fresh sessions land.
const DefaultRoom = "general"

// ConversationKey returns the canonical key for a two-party conversation.
// The pair is unordered: ConversationKey(a, b) == ConversationKey(b, a).
func ConversationKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}
