package handler

import (
	"net/http"

	"matcha/backend/internal/api/middleware"
	"matcha/backend/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the SPA runs on a different origin in development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and registers the connection with the
// hub. Identity was already resolved by the middleware; a request that got
// this far has a user id.
// GET /ws
func (h *Handler) ServeWebSocket(c *gin.Context) {
	userID := middleware.UserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response
		h.Log.Warn("websocket upgrade failed", "user", userID, "err", err)
		return
	}

	client := hub.NewWebSocketClient(userID, conn, h.Hub, h.Log)
	h.Hub.RegisterCh <- client
	client.Run()
}
