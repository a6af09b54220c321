package wsgateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mohamedkhairy/ict-dashboard/internal/config"
	"github.com/mohamedkhairy/ict-dashboard/pkg/logger"
)

// Hub manages WebSocket connections and broadcasts snapshots
type Hub struct {
	config   config.ServerConfig
	registry *ConnectionRegistry
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
	running  bool

	// latest is the most recent snapshot frame, pushed to new connections
	latest []byte

	statsMu sync.Mutex
	stats   HubStats
}

// HubStats holds statistics about the hub
type HubStats struct {
	ConnectionsTotal    int64     `json:"connections_total"`
	ConnectionsActive   int64     `json:"connections_active"`
	ConnectionsRejected int64     `json:"connections_rejected"`
	SnapshotsBroadcast  int64     `json:"snapshots_broadcast"`
	MessagesSent        int64     `json:"messages_sent"`
	MessagesDropped     int64     `json:"messages_dropped"`
	LastBroadcastTime   time.Time `json:"last_broadcast_time"`
}

// NewHub creates a new WebSocket hub
func NewHub(cfg config.ServerConfig) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		config:   cfg,
		registry: NewConnectionRegistry(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the stale connection monitor
func (h *Hub) Start() error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = true
	h.mu.Unlock()

	logger.Info("Starting WebSocket hub",
		logger.Int("max_connections", h.config.MaxConnections),
		logger.Duration("ping_interval", h.config.PingInterval),
	)

	h.wg.Add(1)
	go h.monitorConnections()

	return nil
}

// Stop sends a close frame to every connection and waits for the pumps to exit
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	logger.Info("Stopping WebSocket hub")
	h.cancel()
	h.wg.Wait()
	logger.Info("WebSocket hub stopped")
}

// Register adds a connection, queues the latest snapshot for it and starts
// its pumps
func (h *Hub) Register(conn *Connection) error {
	if !h.registry.TryAdd(conn, h.config.MaxConnections) {
		h.statsMu.Lock()
		h.stats.ConnectionsRejected++
		h.statsMu.Unlock()
		return ErrMaxConnections
	}

	h.statsMu.Lock()
	h.stats.ConnectionsTotal++
	h.statsMu.Unlock()
	logger.WSConnections.Inc()

	if payload, ok := h.Latest(); ok {
		h.send(conn, payload, "snapshot")
	}

	logger.Info("Connection registered",
		logger.String("connection_id", conn.ID),
		logger.String("remote_addr", conn.RemoteAddr),
		logger.Int("total_connections", h.registry.Count()),
	)

	h.wg.Add(2)
	go h.writePump(conn)
	go h.readPump(conn)
	return nil
}

// Unregister removes and closes a connection
func (h *Hub) Unregister(conn *Connection) {
	conn.Close()
	if !h.registry.Remove(conn.ID) {
		return
	}
	logger.WSConnections.Dec()

	logger.Info("Connection unregistered",
		logger.String("connection_id", conn.ID),
		logger.Int("total_connections", h.registry.Count()),
	)
}

// Latest returns the last broadcast snapshot
func (h *Hub) Latest() ([]byte, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.latest != nil
}

// BroadcastSnapshot stores payload as the latest snapshot and queues it for
// every connection. It returns the number of clients the frame was queued for.
func (h *Hub) BroadcastSnapshot(payload []byte) int {
	h.mu.Lock()
	h.latest = payload
	h.mu.Unlock()

	connections := h.registry.GetAll()
	sent := 0
	for _, conn := range connections {
		if h.send(conn, payload, "snapshot") {
			sent++
		}
	}

	h.statsMu.Lock()
	h.stats.SnapshotsBroadcast++
	h.stats.LastBroadcastTime = time.Now()
	h.statsMu.Unlock()

	logger.Debug("Broadcast snapshot",
		logger.Int("sent", sent),
		logger.Int("dropped", len(connections)-sent),
		logger.Int("bytes", len(payload)),
	)
	return sent
}

func (h *Hub) send(conn *Connection, payload []byte, kind string) bool {
	ok := conn.Enqueue(payload)

	h.statsMu.Lock()
	if ok {
		h.stats.MessagesSent++
	} else {
		h.stats.MessagesDropped++
	}
	h.statsMu.Unlock()

	if ok {
		logger.WSMessagesSent.WithLabelValues(kind).Inc()
	} else {
		logger.WSMessagesDropped.Inc()
		logger.Debug("Dropped frame for slow connection",
			logger.String("connection_id", conn.ID),
		)
	}
	return ok
}

// writePump pumps queued frames to the WebSocket connection, one frame per message
func (h *Hub) writePump(conn *Connection) {
	defer h.wg.Done()
	defer h.Unregister(conn)

	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			conn.Conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			conn.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return

		case <-conn.Done():
			return

		case message := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("Write failed",
					logger.ErrorField(err),
					logger.String("connection_id", conn.ID),
				)
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads client control messages until the connection fails
func (h *Hub) readPump(conn *Connection) {
	defer h.wg.Done()
	defer h.Unregister(conn)

	conn.Conn.SetReadLimit(4096)
	conn.Conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.UpdateLastPong()
		conn.Conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("WebSocket error",
					logger.ErrorField(err),
					logger.String("connection_id", conn.ID),
				)
			}
			return
		}
		conn.Conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			conn.SendError("invalid_message", "failed to parse message")
			continue
		}

		if err := conn.HandleClientMessage(&clientMsg, h); err != nil {
			logger.Debug("Failed to handle client message",
				logger.ErrorField(err),
				logger.String("connection_id", conn.ID),
			)
		}
	}
}

// monitorConnections removes connections that stopped answering pings
func (h *Hub) monitorConnections() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case <-ticker.C:
			h.reapStale(time.Now())
		}
	}
}

func (h *Hub) reapStale(now time.Time) int {
	staleThreshold := h.config.ReadTimeout * 2
	removed := 0
	for _, conn := range h.registry.GetAll() {
		lastPong := conn.GetLastPong()
		if now.Sub(lastPong) > staleThreshold {
			logger.Info("Removing stale connection",
				logger.String("connection_id", conn.ID),
				logger.Duration("idle_time", now.Sub(lastPong)),
			)
			h.Unregister(conn)
			removed++
		}
	}
	return removed
}

// ConnectionCount returns the number of open connections
func (h *Hub) ConnectionCount() int {
	return h.registry.Count()
}

// GetStats returns hub statistics
func (h *Hub) GetStats() HubStats {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()

	stats := h.stats
	stats.ConnectionsActive = int64(h.registry.Count())
	return stats
}
