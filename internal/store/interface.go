package store

import (
	"context"

	"github.com/covechat/cove/internal/domain"
)

// MessageStore is the append-ordered message log shared by every instance.
// Appends assign the timestamp; within one room or conversation log the
// assigned timestamps strictly increase, so they double as ordering keys.
type MessageStore interface {
	// AppendRoomMessage stores a room message and returns it with its
	// assigned timestamp.
	AppendRoomMessage(ctx context.Context, room, sender, text string) (*domain.RoomMessage, error)

	// AppendDirectMessage stores a direct message under the canonical
	// conversation key for (sender, recipient).
	AppendDirectMessage(ctx context.Context, sender, recipient, text string) (*domain.DirectMessage, error)

	// RecentRoomMessages returns up to limit most recent room messages in
	// stored (ascending timestamp) order.
	RecentRoomMessages(ctx context.Context, room string, limit int) ([]domain.RoomMessage, error)

	// ConversationHistory returns up to limit most recent direct messages
	// between a and b in stored order. Symmetric in a and b.
	ConversationHistory(ctx context.Context, a, b string, limit int) ([]domain.DirectMessage, error)

	Ping(ctx context.Context) error
	Close() error
}

// Limits bounds log growth and controls trim behaviour on append.
type Limits struct {
	RoomLogMax         int
	ConversationLogMax int
}
