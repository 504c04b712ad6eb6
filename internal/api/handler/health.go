package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const rootMessage = "Chat App Backend is Running!"

// Root is the unauthenticated liveness check.
func (h *Handler) Root(c *gin.Context) {
	c.String(http.StatusOK, rootMessage)
}

// Health reports hub statistics.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"clients":      h.Hub.ClientCount(),
		"participants": h.Hub.PresenceList(),
	})
}
