package handler

import (
	"chatrelay/backend/internal/chathub"

	"github.com/gin-gonic/gin"
)

// ServeWebSocket upgrades the request and hands the connection to the hub.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	// Upgrade writes the error response itself, including 403 for a bad origin.
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", "error", err)
		return
	}

	client := chathub.NewWebSocketClient(conn, h.Hub, h.sendBufferSize, h.maxMessageSize)

	if !h.Hub.Register(client) {
		h.log.Warn("hub is stopped, rejecting connection", "conn_id", client.ConnID)
		conn.Close()
		return
	}

	client.Run()
}
