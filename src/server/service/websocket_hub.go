package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/apimgr/tripplanner/src/utils"
)

// WebSocketClient is one connected session, subscribed to one room
type WebSocketClient struct {
	Room     string
	Conn     *websocket.Conn
	Hub      *WebSocketHub
	Send     chan []byte
	LastPing time.Time

	closeMux sync.Mutex
	closed   bool
}

// closeSend closes the outbound channel exactly once
func (c *WebSocketClient) closeSend() {
	c.closeMux.Lock()
	defer c.closeMux.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// trySend queues data for the session. Closed sessions swallow the
// event; a full buffer reports false so the hub can drop the session.
func (c *WebSocketClient) trySend(data []byte) bool {
	c.closeMux.Lock()
	defer c.closeMux.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// WebSocketHub manages rooms of connected sessions. A user may hold
// several sessions in the same room; every session receives the room's
// events.
type WebSocketHub struct {
	rooms    map[string]map[*WebSocketClient]bool
	roomsMux sync.RWMutex

	register   chan *WebSocketClient
	unregister chan *WebSocketClient

	logger *utils.Logger
	done   chan struct{}
}

// NewWebSocketHub creates a new hub
func NewWebSocketHub(logger *utils.Logger) *WebSocketHub {
	return &WebSocketHub{
		rooms:      make(map[string]map[*WebSocketClient]bool),
		register:   make(chan *WebSocketClient, 10),
		unregister: make(chan *WebSocketClient, 10),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// UserRoom names the per-user room
func UserRoom(userID int64) string {
	return fmt.Sprintf("user-%d", userID)
}

// Run starts the hub loop (run in goroutine)
func (h *WebSocketHub) Run() {
	cleanupTicker := time.NewTicker(5 * time.Minute)
	defer cleanupTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.roomsMux.Lock()
			if h.rooms[client.Room] == nil {
				h.rooms[client.Room] = make(map[*WebSocketClient]bool)
			}
			h.rooms[client.Room][client] = true
			h.roomsMux.Unlock()
			h.logf("websocket session joined %s", client.Room)

		case client := <-h.unregister:
			h.roomsMux.Lock()
			if sessions, ok := h.rooms[client.Room]; ok {
				if sessions[client] {
					delete(sessions, client)
					client.closeSend()
					if len(sessions) == 0 {
						delete(h.rooms, client.Room)
					}
					h.logf("websocket session left %s", client.Room)
				}
			}
			h.roomsMux.Unlock()

		case <-cleanupTicker.C:
			h.cleanupStaleConnections()

		case <-h.done:
			return
		}
	}
}

// Stop shuts the hub down and closes every connection
func (h *WebSocketHub) Stop() {
	close(h.done)

	h.roomsMux.Lock()
	for _, sessions := range h.rooms {
		for client := range sessions {
			client.Conn.Close()
		}
	}
	h.roomsMux.Unlock()
}

// RegisterClient adds a session to its room
func (h *WebSocketHub) RegisterClient(client *WebSocketClient) {
	h.register <- client
}

// UnregisterClient removes a session from its room
func (h *WebSocketHub) UnregisterClient(client *WebSocketClient) {
	h.unregister <- client
}

// Deliver sends an event to every session in its room. Sessions whose
// buffers are full are dropped rather than blocking the hub.
func (h *WebSocketHub) Deliver(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logf("failed to marshal event %s: %v", event.ID, err)
		return
	}

	h.roomsMux.RLock()
	sessions := make([]*WebSocketClient, 0, len(h.rooms[event.Room]))
	for client := range h.rooms[event.Room] {
		sessions = append(sessions, client)
	}
	h.roomsMux.RUnlock()

	for _, client := range sessions {
		if !client.trySend(data) {
			h.UnregisterClient(client)
			client.Conn.Close()
		}
	}
}

// RoomCount returns the number of active rooms
func (h *WebSocketHub) RoomCount() int {
	h.roomsMux.RLock()
	defer h.roomsMux.RUnlock()
	return len(h.rooms)
}

// SessionCount returns the number of connected sessions
func (h *WebSocketHub) SessionCount() int {
	h.roomsMux.RLock()
	defer h.roomsMux.RUnlock()

	count := 0
	for _, sessions := range h.rooms {
		count += len(sessions)
	}
	return count
}

// IsConnected reports whether a room has at least one session
func (h *WebSocketHub) IsConnected(room string) bool {
	h.roomsMux.RLock()
	defer h.roomsMux.RUnlock()
	return len(h.rooms[room]) > 0
}

// cleanupStaleConnections drops sessions that stopped answering pings
func (h *WebSocketHub) cleanupStaleConnections() {
	h.roomsMux.Lock()
	defer h.roomsMux.Unlock()

	now := time.Now()
	for room, sessions := range h.rooms {
		for client := range sessions {
			if now.Sub(client.LastPing) > 2*time.Minute {
				delete(sessions, client)
				client.closeSend()
				client.Conn.Close()
				h.logf("dropped stale websocket session in %s", room)
			}
		}
		if len(sessions) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *WebSocketHub) logf(format string, v ...interface{}) {
	if h.logger != nil {
		h.logger.Debug(format, v...)
	}
}

// ReadPump consumes inbound frames until the connection dies
func (c *WebSocketClient) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		c.LastPing = time.Now()
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logf("websocket read error: %v", err)
			}
			break
		}
		c.LastPing = time.Now()
	}
}

// WritePump flushes outbound events and keeps the connection alive
func (c *WebSocketClient) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Coalesce queued messages
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
