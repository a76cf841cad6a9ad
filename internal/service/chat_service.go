package service

import (
	"context"
	"errors"

	"github.com/covechat/cove/internal/archive"
	"github.com/covechat/cove/internal/bridge"
	"github.com/covechat/cove/internal/config"
	"github.com/covechat/cove/internal/directory"
	"github.com/covechat/cove/internal/domain"
	"github.com/covechat/cove/internal/hub"
	"github.com/covechat/cove/internal/presence"
	"github.com/covechat/cove/internal/store"
	"github.com/covechat/cove/pkg/log"
)

type chatService struct {
	hub      *hub.Hub
	store    store.MessageStore
	presence presence.Tracker
	dir      directory.Directory
	bridge   bridge.Bridge
	archiver archive.Archiver // optional
	history  config.HistoryConfig

	cancel context.CancelFunc
	fanout *fanout
}

// NewChatService wires the chat core. archiver may be nil.
func NewChatService(
	h *hub.Hub,
	msgStore store.MessageStore,
	tracker presence.Tracker,
	dir directory.Directory,
	br bridge.Bridge,
	archiver archive.Archiver,
	history config.HistoryConfig,
) ChatService {
	return &chatService{
		hub:      h,
		store:    msgStore,
		presence: tracker,
		dir:      dir,
		bridge:   br,
		archiver: archiver,
		history:  history,
		fanout:   newFanout(h, br),
	}
}

// HandleJoinRoom leaves the previous room, joins the new one (auto-created
// as public when unknown) and replays recent history to this session only.
//
// The replay snapshot is read before the session enters the room index, and
// its highest timestamp becomes the session's replay horizon. Anything
// accepted after the snapshot carries a strictly larger timestamp and
// arrives live; anything at or below the horizon is dropped by fan-out. The
// two paths can never both fire for the same message.
func (s *chatService) HandleJoinRoom(ctx context.Context, c *hub.Client, room string) error {
	if room == "" {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "room is required"))
	}

	if err := s.dir.EnsureRoom(ctx, room); err != nil {
		if errors.Is(err, directory.ErrInvalidRoomName) {
			return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid room name"))
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoom, room).Msg("failed to auto-register room")
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeInternalError, "failed to join room"))
	}

	replay, err := s.store.RecentRoomMessages(ctx, room, s.history.RoomReplay)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoom, room).Msg("failed to read room history")
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeInternalError, "failed to join room"))
	}

	var horizon int64
	if len(replay) > 0 {
		horizon = replay[len(replay)-1].Timestamp
	}

	c.Session.JoinRoom(room, horizon)
	s.hub.JoinRoom(c, room)

	s.touch(ctx, c)

	c.SendEvent(&domain.RoomJoinedOut{Type: domain.EventRoomJoined, Room: room})
	for i := range replay {
		c.SendEvent(domain.NewRoomMessageOut(&replay[i]))
	}
	return nil
}

func (s *chatService) HandleChatMessage(ctx context.Context, c *hub.Client, text string) error {
	if text == "" {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "text is required"))
	}
	room := c.Session.GetCurrentRoom()
	if room == "" {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeNotInRoom, "join a room first"))
	}

	s.touch(ctx, c)

	// Durable in the store before any fan-out: a crash between the two
	// steps leaves the message in history but never live-delivered.
	msg, err := s.store.AppendRoomMessage(ctx, room, c.Session.GetUsername(), text)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoom, room).Msg("failed to store room message")
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeInternalError, "failed to send message"))
	}

	event, err := bridge.NewEvent(bridge.EventRoomMessage, bridge.RoomChannel(room), msg)
	if err != nil {
		return err
	}
	if err := s.bridge.Publish(ctx, bridge.RoomChannel(room), event); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoom, room).Msg("failed to publish room message")
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeInternalError, "failed to send message"))
	}

	s.archiveRoom(ctx, msg)
	return nil
}

func (s *chatService) HandlePrivateMessage(ctx context.Context, c *hub.Client, to, text string) error {
	if to == "" || text == "" {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "to and text are required"))
	}

	s.touch(ctx, c)

	from := c.Session.GetUsername()
	msg, err := s.store.AppendDirectMessage(ctx, from, to, text)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldUsername, from).Msg("failed to store direct message")
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeInternalError, "failed to send message"))
	}

	if err := s.dir.AddConversation(ctx, from, to); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to record conversation")
	}

	channel := bridge.DirectChannel(from, to)
	event, err := bridge.NewEvent(bridge.EventDirectMessage, channel, msg)
	if err != nil {
		return err
	}
	if err := s.bridge.Publish(ctx, channel, event); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to publish direct message")
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeInternalError, "failed to send message"))
	}

	s.archiveDirect(ctx, msg)
	return nil
}

func (s *chatService) HandleHeartbeat(ctx context.Context, c *hub.Client) error {
	s.touch(ctx, c)
	return nil
}

func (s *chatService) HandlePrivateHistory(ctx context.Context, c *hub.Client, withUser string) error {
	if withUser == "" {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "with_user is required"))
	}

	s.touch(ctx, c)

	me := c.Session.GetUsername()
	messages, err := s.store.ConversationHistory(ctx, me, withUser, s.history.ConversationReplay)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to read conversation history")
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeInternalError, "failed to load history"))
	}

	return c.SendEvent(&domain.PrivateHistoryOut{
		Type:     domain.EventPrivateHistory,
		WithUser: withUser,
		Messages: messages,
	})
}

func (s *chatService) HandleConversations(ctx context.Context, c *hub.Client) error {
	s.touch(ctx, c)

	users, err := s.dir.ConversationsOf(ctx, c.Session.GetUsername())
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to list conversations")
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeInternalError, "failed to load conversations"))
	}

	return c.SendEvent(&domain.ConversationsOut{
		Type:  domain.EventConversations,
		Users: users,
	})
}

func (s *chatService) HandleCreateRoom(ctx context.Context, c *hub.Client, name string, private bool) error {
	if name == "" {
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "name is required"))
	}

	s.touch(ctx, c)

	if _, err := s.CreateRoom(ctx, name, c.Session.GetUsername(), private); err != nil {
		if errors.Is(err, directory.ErrRoomExists) {
			return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeRoomExists, "room already exists"))
		}
		if errors.Is(err, directory.ErrInvalidRoomName) {
			return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid room name"))
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoom, name).Msg("failed to create room")
		return c.SendEvent(domain.NewErrorEvent(domain.ErrCodeInternalError, "failed to create room"))
	}

	return c.SendEvent(&domain.RoomCreatedOut{Type: domain.EventRoomCreated, Room: name})
}

func (s *chatService) CreateRoom(ctx context.Context, name, creator string, private bool) (*domain.Room, error) {
	return s.dir.CreateRoom(ctx, name, creator, private)
}

func (s *chatService) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return s.dir.ListRooms(ctx)
}

// Start registers the default room and launches the bridge subscribers.
func (s *chatService) Start(ctx context.Context) error {
	if err := s.dir.EnsureRoom(ctx, domain.DefaultRoom); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	if err := s.fanout.Start(ctx); err != nil {
		cancel()
		return err
	}

	l := log.L()
	l.Info().Msg("chat service started")
	return nil
}

func (s *chatService) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.fanout.Wait()
	if s.archiver != nil {
		if err := s.archiver.Close(); err != nil {
			l := log.L()
			l.Warn().Err(err).Msg("failed to close archiver")
		}
	}
	return nil
}

// touch refreshes presence on any activity. Failures are soft: presence
// lags rather than the action failing.
func (s *chatService) touch(ctx context.Context, c *hub.Client) {
	if err := s.presence.Touch(ctx, c.Session.GetUsername()); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("presence touch failed")
	}
}

func (s *chatService) archiveRoom(ctx context.Context, msg *domain.RoomMessage) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.ArchiveRoomMessage(ctx, msg); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("archive failed")
	}
}

func (s *chatService) archiveDirect(ctx context.Context, msg *domain.DirectMessage) {
	if s.archiver == nil {
		return
	}
	if err := s.archiver.ArchiveDirectMessage(ctx, msg); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("archive failed")
	}
}
