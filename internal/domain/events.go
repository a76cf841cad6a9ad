package domain

// WebSocket event types from client.
const (
	EventJoinRoom          = "join_room"
	EventChatMessage       = "chat_message"
	EventPrivateMessage    = "private_message"
	EventHeartbeat         = "heartbeat"
	EventGetPrivateHistory = "get_private_history"
	EventGetConversations  = "get_conversations"
	EventCreateRoom        = "create_room"
	EventPing              = "ping"
)

// WebSocket event types to client.
const (
	EventMessage            = "message"
	EventPrivateMessageOut  = "private_message"
	EventPrivateHistory     = "private_history"
	EventConversations      = "conversations"
	EventRoomJoined         = "room_joined"
	EventRoomCreated        = "room_created"
	EventPong               = "pong"
	EventError              = "error"
)

// Error codes
const (
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeRoomExists    = "ROOM_EXISTS"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeNotInRoom     = "NOT_IN_ROOM"
)

// BaseEvent carries the type tag every inbound event must have.
type BaseEvent struct {
	Type string `json:"type"`
}

// Client -> Server events

type JoinRoomEvent struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type ChatMessageEvent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type PrivateMessageEvent struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Text string `json:"text"`
}

type PrivateHistoryRequest struct {
	Type     string `json:"type"`
	WithUser string `json:"with_user"`
}

type CreateRoomEvent struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Private bool   `json:"private"`
}

// Server -> Client events

type RoomMessageOut struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Room      string `json:"room"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type PrivateMessageOut struct {
	Type      string `json:"type"`
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type PrivateHistoryOut struct {
	Type     string          `json:"type"`
	WithUser string          `json:"with_user"`
	Messages []DirectMessage `json:"messages"`
}

type ConversationsOut struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
}

type RoomJoinedOut struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type RoomCreatedOut struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorEvent(code, message string) *ErrorEvent {
	return &ErrorEvent{
		Type:    EventError,
		Code:    code,
		Message: message,
	}
}

// NewRoomMessageOut wraps a stored room message for delivery.
func NewRoomMessageOut(msg *RoomMessage) *RoomMessageOut {
	return &RoomMessageOut{
		Type:      EventMessage,
		Username:  msg.Username,
		Room:      msg.Room,
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
	}
}

// NewPrivateMessageOut wraps a stored direct message for delivery.
func NewPrivateMessageOut(msg *DirectMessage) *PrivateMessageOut {
	return &PrivateMessageOut{
		Type:      EventPrivateMessageOut,
		From:      msg.From,
		To:        msg.To,
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
	}
}
