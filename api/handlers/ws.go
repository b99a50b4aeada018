package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/virtudoc/virtudoc-engine/api"
	"github.com/virtudoc/virtudoc-engine/config"
	"github.com/virtudoc/virtudoc-engine/metrics"
	"github.com/virtudoc/virtudoc-engine/realtime"
	"github.com/virtudoc/virtudoc-engine/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocket serves the push channel the dashboards subscribe to
type WebSocket struct {
	Hub     *realtime.Hub
	Store   *store.Store
	Config  config.Config
	Metrics *metrics.Metrics
}

// Handler authenticates the handshake token and attaches the connection to
// the hub. Auth failures are rejected before the upgrade so the client sees a
// plain 401 and knows not to retry.
func (ws WebSocket) Handler(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
			token = auth[len(prefix):]
		}
	}
	if token == "" {
		http.Error(w, `{"error": "missing token"}`, http.StatusUnauthorized)
		return
	}

	userID, role, err := api.ParseWSToken(ws.Config.JWTSecret, token)
	if err != nil {
		zap.S().Warnw("websocket handshake rejected", "error", err)
		http.Error(w, `{"error": "invalid token"}`, http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	if replaced := ws.Hub.Register(userID, role, conn); replaced {
		ws.Metrics.ClientReconnects.Inc()
	}
	ws.Metrics.ActiveConnections.Set(float64(ws.Hub.ConnectedCount()))

	// Keep the connection alive; clients only receive
	for {
		if _, _, err := conn.NextReader(); err != nil {
			break
		}
	}

	conn.Close()
	ws.Hub.Unregister(userID, conn)
	ws.Metrics.ActiveConnections.Set(float64(ws.Hub.ConnectedCount()))
}
