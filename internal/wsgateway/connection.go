package wsgateway

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const sendBufferSize = 16

// Connection represents a WebSocket connection with a display client.
// Every outbound frame goes through Send and is written by the hub's write pump.
type Connection struct {
	ID         string
	RemoteAddr string
	Conn       *websocket.Conn
	Send       chan []byte

	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	lastPong  time.Time
	createdAt time.Time
}

// NewConnection creates a new WebSocket connection
func NewConnection(id string, remoteAddr string, conn *websocket.Conn) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	return &Connection{
		ID:         id,
		RemoteAddr: remoteAddr,
		Conn:       conn,
		Send:       make(chan []byte, sendBufferSize),
		ctx:        ctx,
		cancel:     cancel,
		createdAt:  now,
		lastPong:   now,
	}
}

// UpdateLastPong updates the last pong time
func (c *Connection) UpdateLastPong() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPong = time.Now()
}

// GetLastPong returns the last pong time
func (c *Connection) GetLastPong() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastPong
}

// Done is closed once the connection is closed
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection. It is safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}

// Enqueue queues a frame without blocking. It reports false when the frame
// was dropped because the connection is closed or its buffer is full.
func (c *Connection) Enqueue(data []byte) bool {
	select {
	case <-c.ctx.Done():
		return false
	default:
	}

	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// SendJSON marshals v and queues it
func (c *Connection) SendJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if !c.Enqueue(data) {
		return ErrSendBufferFull
	}
	return nil
}
