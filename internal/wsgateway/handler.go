package wsgateway

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mohamedkhairy/ict-dashboard/pkg/logger"
)

var upgrader = websocket.Upgrader{
	// Display clients are served from any origin on the local network
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
}

// ServeHTTP upgrades the request and registers the connection
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if limit := h.config.MaxConnections; limit > 0 && h.registry.Count() >= limit {
		logger.Warn("Max connections reached, rejecting new connection",
			logger.Int("max_connections", limit),
		)
		http.Error(w, "Max connections reached", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade connection",
			logger.ErrorField(err),
		)
		return
	}

	wsConn := NewConnection(uuid.NewString(), r.RemoteAddr, conn)
	if err := h.Register(wsConn); err != nil {
		// lost the race for the last slot after the upgrade
		if errors.Is(err, ErrMaxConnections) {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
		}
		wsConn.Close()
		return
	}

	logger.Info("WebSocket connection established",
		logger.String("connection_id", wsConn.ID),
		logger.String("remote_addr", r.RemoteAddr),
	)
}
