package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/virtudoc/virtudoc-engine/models"
)

// Hub tracks connected dashboard users (userID -> connection) and fans push
// events out to them. It is the server-side peer of Client.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*hubClient
}

type hubClient struct {
	conn *websocket.Conn
	role models.Role
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*hubClient)}
}

// Register attaches a user's websocket. A second connection for the same
// user replaces the first; the returned flag reports whether that happened.
func (h *Hub) Register(userID string, role models.Role, conn *websocket.Conn) bool {
	h.mu.Lock()
	old, replaced := h.clients[userID]
	if replaced {
		old.conn.Close()
	}
	h.clients[userID] = &hubClient{conn: conn, role: role}
	h.mu.Unlock()
	zap.S().Infow("user connected to push hub", "userID", userID, "role", role, "replaced", replaced)
	return replaced
}

// Unregister detaches a user's websocket if it is still the registered one
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	if cur, ok := h.clients[userID]; ok && cur.conn == conn {
		delete(h.clients, userID)
	}
	h.mu.Unlock()
	zap.S().Infow("user disconnected from push hub", "userID", userID)
}

// ConnectedCount returns the number of attached users
func (h *Hub) ConnectedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// SendToUser delivers an event to one user if connected
func (h *Hub) SendToUser(userID string, evt models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cl, ok := h.clients[userID]
	if !ok {
		return
	}
	if err := cl.conn.WriteJSON(evt); err != nil {
		zap.S().Warnw("failed to send event, dropping client", "userID", userID, "type", evt.Type, "error", err)
		cl.conn.Close()
		delete(h.clients, userID)
	}
}

// BroadcastToRole delivers an event to every connected user with the role
func (h *Hub) BroadcastToRole(role models.Role, evt models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, cl := range h.clients {
		if cl.role != role {
			continue
		}
		if err := cl.conn.WriteJSON(evt); err != nil {
			zap.S().Warnw("failed to broadcast event, dropping client", "userID", userID, "type", evt.Type, "error", err)
			cl.conn.Close()
			delete(h.clients, userID)
		}
	}
}

// Broadcast delivers an event to every connected user
func (h *Hub) Broadcast(evt models.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, cl := range h.clients {
		if err := cl.conn.WriteJSON(evt); err != nil {
			zap.S().Warnw("failed to broadcast event, dropping client", "userID", userID, "type", evt.Type, "error", err)
			cl.conn.Close()
			delete(h.clients, userID)
		}
	}
}
