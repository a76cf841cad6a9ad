package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/covechat/cove/internal/auth"
	"github.com/covechat/cove/internal/config"
	"github.com/covechat/cove/internal/domain"
	"github.com/covechat/cove/internal/hub"
	"github.com/covechat/cove/internal/service"
	"github.com/covechat/cove/pkg/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler authenticates and upgrades websocket connections, then routes
// each inbound event to the chat service.
type WSHandler struct {
	hub      *hub.Hub
	service  service.ChatService
	verifier auth.Verifier
	wsCfg    config.WebSocketConfig
}

func NewWSHandler(h *hub.Hub, svc service.ChatService, verifier auth.Verifier, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:      h,
		service:  svc,
		verifier: verifier,
		wsCfg:    wsCfg,
	}
}

// HandleWebSocket verifies the token before anything else: an
// unauthenticated connection attempt is rejected outright and never reaches
// the chat core.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	username, err := h.verifier.Verify(bearerToken(r))
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), username, h.hub, conn, h.wsCfg)

	if err := h.hub.Register(client); err != nil {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump(h.handleEvent)

	// Fresh sessions land in the default room.
	if err := h.service.HandleJoinRoom(context.Background(), client, domain.DefaultRoom); err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldClientID, client.ID).Msg("default room join failed")
	}
}

// bearerToken pulls the token from the Authorization header or, for browser
// websocket clients that cannot set headers, the token query parameter.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// handleEvent decodes one inbound frame. A malformed or unknown event
// produces an error event back to this client only; the connection lives on.
func (h *WSHandler) handleEvent(client *hub.Client, message []byte) {
	var base domain.BaseEvent
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid event format"))
		return
	}

	ctx := context.Background()

	switch base.Type {
	case domain.EventJoinRoom:
		var ev domain.JoinRoomEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid join_room event"))
			return
		}
		h.logIfFailed(client, h.service.HandleJoinRoom(ctx, client, ev.Room))

	case domain.EventChatMessage:
		var ev domain.ChatMessageEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid chat_message event"))
			return
		}
		h.logIfFailed(client, h.service.HandleChatMessage(ctx, client, ev.Text))

	case domain.EventPrivateMessage:
		var ev domain.PrivateMessageEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid private_message event"))
			return
		}
		h.logIfFailed(client, h.service.HandlePrivateMessage(ctx, client, ev.To, ev.Text))

	case domain.EventHeartbeat:
		h.logIfFailed(client, h.service.HandleHeartbeat(ctx, client))

	case domain.EventGetPrivateHistory:
		var ev domain.PrivateHistoryRequest
		if err := json.Unmarshal(message, &ev); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid get_private_history event"))
			return
		}
		h.logIfFailed(client, h.service.HandlePrivateHistory(ctx, client, ev.WithUser))

	case domain.EventGetConversations:
		h.logIfFailed(client, h.service.HandleConversations(ctx, client))

	case domain.EventCreateRoom:
		var ev domain.CreateRoomEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "invalid create_room event"))
			return
		}
		h.logIfFailed(client, h.service.HandleCreateRoom(ctx, client, ev.Name, ev.Private))

	case domain.EventPing:
		client.SendEvent(map[string]string{"type": domain.EventPong})

	default:
		client.SendEvent(domain.NewErrorEvent(domain.ErrCodeBadRequest, "unknown event type"))
	}
}

func (h *WSHandler) logIfFailed(client *hub.Client, err error) {
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldClientID, client.ID).Msg("event handling failed")
	}
}

func (h *WSHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleWebSocket)
}
