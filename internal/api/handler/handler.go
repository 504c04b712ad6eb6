// Package handler exposes the HTTP surface of the relay: health checks and the
// WebSocket endpoint feeding the chat hub.
package handler

import (
	"log/slog"

	"chatrelay/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Options configures a Handler.
type Options struct {
	// Origins is the browser origin allow-list; "*" allows any origin.
	Origins        []string
	SendBufferSize int
	MaxMessageSize int64
	Logger         *slog.Logger
}

// Handler holds the hub and the connection settings for new clients.
type Handler struct {
	Hub *chathub.ManagerService

	origins        *OriginPolicy
	upgrader       websocket.Upgrader
	sendBufferSize int
	maxMessageSize int64
	log            *slog.Logger
}

func NewHandler(hub *chathub.ManagerService, opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = hub.Logger()
	}

	h := &Handler{
		Hub:            hub,
		origins:        NewOriginPolicy(opts.Origins, log),
		sendBufferSize: opts.SendBufferSize,
		maxMessageSize: opts.MaxMessageSize,
		log:            log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.origins.CheckOrigin,
	}
	return h
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.log), h.CORS())

	r.GET("/", h.Root)
	r.GET("/healthz", h.Health)
	r.GET("/ws", h.ServeWebSocket)
	return r
}
