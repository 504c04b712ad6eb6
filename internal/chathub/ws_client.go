package chathub

import (
	"encoding/json"
	"log/slog"
	"time"

	"chatrelay/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	DefaultSendBufferSize = 256
	DefaultMaxMessageSize = 64 * 1024
)

// WebSocketClient implements Client over a gorilla/websocket connection. Frames are
// JSON envelopes: {"event": "...", "data": ...}.
type WebSocketClient struct {
	ConnID string
	Conn   *websocket.Conn
	Hub    *ManagerService
	Send   chan models.Envelope

	log            *slog.Logger
	maxMessageSize int64
}

// NewWebSocketClient wraps conn with a fresh connection id.
func NewWebSocketClient(conn *websocket.Conn, hub *ManagerService, sendBuffer int, maxMessageSize int64) *WebSocketClient {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBufferSize
	}
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}

	connID := uuid.New().String()
	return &WebSocketClient{
		ConnID:         connID,
		Conn:           conn,
		Hub:            hub,
		Send:           make(chan models.Envelope, sendBuffer),
		log:            hub.Logger().With("conn_id", connID),
		maxMessageSize: maxMessageSize,
	}
}

func (c *WebSocketClient) GetConnID() string                      { return c.ConnID }
func (c *WebSocketClient) GetSendChannel() chan<- models.Envelope { return c.Send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the Send channel, which makes writePump send a close frame.
func (c *WebSocketClient) Close() {
	close(c.Send)
}

// readPump decodes envelopes from the connection and dispatches them to the hub.
// When the connection ends the hub is told to unregister the client.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("error reading message", "error", err)
			}
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(message, &env); err != nil || env.Event == "" {
			c.log.Debug("skipping undecodable frame", "error", err)
			continue
		}

		if !c.Hub.Dispatch(models.InboundEvent{ConnID: c.ConnID, Event: env.Event, Data: env.Data}) {
			return
		}
	}
}

// writePump writes queued envelopes and keeps the connection alive with pings.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(env); err != nil {
				c.log.Debug("write failed", "error", err)
				return
			}

			// Flush whatever queued up meanwhile, one frame per envelope.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				next, ok := <-c.Send
				if !ok {
					c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.Conn.WriteJSON(next); err != nil {
					c.log.Debug("write failed", "error", err)
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
