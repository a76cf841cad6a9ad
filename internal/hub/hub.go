package hub

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/covechat/cove/pkg/log"
)

var ErrDuplicateClient = errors.New("client already registered")

// Hub is this instance's session registry: purely local, ephemeral routing
// state. It indexes live clients by room and by identity so delivery visits
// only the sessions a selector matches, and it can always be rebuilt from
// reconnects.
type Hub struct {
	clients     map[string]*Client            // clientID -> client
	rooms       map[string]map[string]*Client // room -> clientID -> client
	memberships map[string]string             // clientID -> room it is indexed under
	identities  map[string]map[string]*Client // username -> clientID -> client
	mu          sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		rooms:       make(map[string]map[string]*Client),
		memberships: make(map[string]string),
		identities:  make(map[string]map[string]*Client),
	}
}

// Register adds a client. It fails only when the same connection is
// registered twice; one identity may hold any number of sessions.
func (h *Hub) Register(client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		return ErrDuplicateClient
	}
	h.clients[client.ID] = client

	username := client.Session.GetUsername()
	if _, ok := h.identities[username]; !ok {
		h.identities[username] = make(map[string]*Client)
	}
	h.identities[username][client.ID] = client

	l := log.L()
	l.Debug().Str(log.FieldClientID, client.ID).Str(log.FieldUsername, username).Msg("client registered")
	return nil
}

// Unregister removes the client from every index and closes its send
// channel. Presence is untouched: liveness is activity-based, and a brief
// disconnect must not flip a user offline.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)

	if room, ok := h.memberships[client.ID]; ok {
		h.removeFromRoom(client, room)
		delete(h.memberships, client.ID)
	}

	username := client.Session.GetUsername()
	if sessions, ok := h.identities[username]; ok {
		delete(sessions, client.ID)
		if len(sessions) == 0 {
			delete(h.identities, username)
		}
	}

	client.closeSend()

	l := log.L()
	l.Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")
}

// JoinRoom moves the client from its previous room (if any) into room. The
// hub tracks which room index holds each client itself, so the move is
// correct regardless of what the session says. Joining the current room
// again is a no-op.
func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev, ok := h.memberships[client.ID]
	if ok && prev == room {
		return
	}
	if ok {
		h.removeFromRoom(client, prev)
	}

	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][client.ID] = client
	h.memberships[client.ID] = room

	l := log.L()
	l.Info().Str(log.FieldClientID, client.ID).Str(log.FieldRoom, room).Msg("client joined room")
}

func (h *Hub) removeFromRoom(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// DeliverToRoom pushes an encoded event to every session in the room,
// skipping sessions whose join-time replay already covered this timestamp.
func (h *Hub) DeliverToRoom(room string, timestamp int64, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.rooms[room] {
		if timestamp > 0 && client.Session.GetReplayHorizon() >= timestamp {
			continue
		}
		h.enqueue(client, payload)
	}
}

// DeliverToConversation pushes an encoded event to every live session of
// either participant.
func (h *Hub) DeliverToConversation(a, b string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.identities[a] {
		h.enqueue(client, payload)
	}
	if b != a {
		for _, client := range h.identities[b] {
			h.enqueue(client, payload)
		}
	}
}

// RoomClientCount reports how many local sessions are in the room.
func (h *Hub) RoomClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// ClientCount reports how many sessions this instance holds.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) enqueue(client *Client, payload []byte) {
	if !client.trySend(payload) {
		// Slow consumer; drop the connection rather than stall delivery
		// to everyone else.
		go h.Unregister(client)
	}
}

// Encode marshals an outbound event once for fan-out.
func Encode(event interface{}) ([]byte, error) {
	return json.Marshal(event)
}
