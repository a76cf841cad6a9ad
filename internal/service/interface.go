package service

import (
	"context"

	"github.com/covechat/cove/internal/domain"
	"github.com/covechat/cove/internal/hub"
)

// ChatService routes inbound session events into the shared components and
// runs the bridge subscribers that fan accepted messages back out.
type ChatService interface {
	HandleJoinRoom(ctx context.Context, client *hub.Client, room string) error
	HandleChatMessage(ctx context.Context, client *hub.Client, text string) error
	HandlePrivateMessage(ctx context.Context, client *hub.Client, to, text string) error
	HandleHeartbeat(ctx context.Context, client *hub.Client) error
	HandlePrivateHistory(ctx context.Context, client *hub.Client, withUser string) error
	HandleConversations(ctx context.Context, client *hub.Client) error
	HandleCreateRoom(ctx context.Context, client *hub.Client, name string, private bool) error

	// CreateRoom and ListRooms back the HTTP room surface.
	CreateRoom(ctx context.Context, name, creator string, private bool) (*domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)

	Start(ctx context.Context) error
	Stop() error
}
