package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/covechat/cove/internal/config"
	"github.com/covechat/cove/internal/domain"
	"github.com/covechat/cove/pkg/log"
)

// Client is one live websocket connection bound to an authenticated session.
type Client struct {
	ID      string
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Session *domain.Session
	config  config.WebSocketConfig

	// sendMu guards Send against the close in Unregister racing a write
	// from an event handler or fan-out.
	sendMu     sync.Mutex
	sendClosed bool
}

func NewClient(id, username string, h *Hub, conn *websocket.Conn, cfg config.WebSocketConfig) *Client {
	return &Client{
		ID:      id,
		Hub:     h,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		Session: domain.NewSession(id, username),
		config:  cfg,
	}
}

// ReadPump reads inbound frames until the connection dies, refreshing the
// read deadline on pongs and handing each frame to handler.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Warn().Str(log.FieldClientID, c.ID).Err(err).Msg("websocket read error")
			}
			break
		}

		c.Session.UpdateActivity()
		handler(c, message)
	}
}

// WritePump drains the send channel onto the connection and keeps the
// connection alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendEvent marshals an outbound event onto the send channel. A full buffer
// drops the event rather than blocking the caller; a closed client drops it
// silently.
func (c *Client) SendEvent(event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	c.trySend(data)
	return nil
}

// trySend queues a payload without blocking. It reports false only when the
// buffer is full; a send after close is a no-op, not a panic, since delivery
// legitimately races disconnection.
func (c *Client) trySend(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.sendClosed {
		return true
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once. Called by the hub on
// unregister; WritePump exits when the channel drains.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.sendClosed {
		c.sendClosed = true
		close(c.Send)
	}
}
