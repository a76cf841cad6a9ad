package directory

import (
	"context"
	"errors"
	"strings"

	"github.com/covechat/cove/internal/domain"
)

var (
	ErrRoomExists      = errors.New("room already exists")
	ErrRoomNotFound    = errors.New("room not found")
	ErrInvalidRoomName = errors.New("invalid room name")
)

// checkRoomName rejects names that would collide with the storage key
// scheme, which uses ":" as its separator (room:{name}, room:{name}:meta,
// chat:room:{name}).
func checkRoomName(name string) error {
	if name == "" || strings.Contains(name, ":") {
		return ErrInvalidRoomName
	}
	return nil
}

// Directory tracks known rooms and, per identity, the set of identities it
// has exchanged direct messages with. Rooms and conversations have no
// lifecycle beyond creation; nothing here is ever deleted.
type Directory interface {
	// CreateRoom registers a new room, failing with ErrRoomExists if the
	// name is taken and ErrInvalidRoomName if the name is empty or
	// contains ":".
	CreateRoom(ctx context.Context, name, creator string, private bool) (*domain.Room, error)

	// EnsureRoom registers the room as public if unknown. Idempotent;
	// backs the auto-create-on-join policy. Same name rules as CreateRoom.
	EnsureRoom(ctx context.Context, name string) error

	// GetRoom returns the room's metadata or ErrRoomNotFound.
	GetRoom(ctx context.Context, name string) (*domain.Room, error)

	// ListRooms returns all known rooms.
	ListRooms(ctx context.Context) ([]domain.Room, error)

	// AddConversation records that a and b have exchanged direct messages.
	// Idempotent set-add on both sides.
	AddConversation(ctx context.Context, a, b string) error

	// ConversationsOf returns the identities this identity has exchanged
	// direct messages with.
	ConversationsOf(ctx context.Context, identity string) ([]string, error)

	Close() error
}
