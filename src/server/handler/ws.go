package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/apimgr/tripplanner/src/server/middleware"
	"github.com/apimgr/tripplanner/src/server/service"
	"github.com/apimgr/tripplanner/src/utils"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers cannot set Authorization headers on websocket dials, so
	// the token arrives as a query parameter and CORS is enforced by
	// the cors middleware before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades authenticated connections and subscribes
// each one to its user's room
type WebSocketHandler struct {
	hub    *services.WebSocketHub
	logger *utils.Logger
}

// NewWebSocketHandler creates the websocket handler
func NewWebSocketHandler(hub *services.WebSocketHub, logger *utils.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// Connect handles GET /ws. RequireAuth has already resolved the user,
// either from the header or the token query parameter.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	user := middleware.MustCurrentUser(c)

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed for user %d: %v", user.ID, err)
		return
	}

	client := &services.WebSocketClient{
		Room:     services.UserRoom(user.ID),
		Conn:     conn,
		Hub:      h.hub,
		Send:     make(chan []byte, 64),
		LastPing: time.Now(),
	}

	h.hub.RegisterClient(client)
	go client.WritePump()
	go client.ReadPump()
}
