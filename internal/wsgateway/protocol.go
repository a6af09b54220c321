package wsgateway

import (
	"errors"
	"fmt"
)

var (
	ErrSendBufferFull = errors.New("send buffer full or connection closed")
	ErrMaxConnections = errors.New("max connections reached")
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypePing    MessageType = "ping"
	MessageTypePong    MessageType = "pong"
	MessageTypeRefresh MessageType = "refresh"
	MessageTypeError   MessageType = "error"
)

// ClientMessage represents a message from the client
type ClientMessage struct {
	Type string `json:"type"`
}

// ServerMessage represents a control message to the client. Snapshot frames
// are sent as the bare document and never wrapped.
type ServerMessage struct {
	Type    MessageType `json:"type"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// SnapshotSource provides the most recent encoded document
type SnapshotSource interface {
	Latest() ([]byte, bool)
}

// HandleClientMessage handles a message from the client
func (c *Connection) HandleClientMessage(msg *ClientMessage, snapshots SnapshotSource) error {
	switch MessageType(msg.Type) {
	case MessageTypePing:
		return c.SendPong()

	case MessageTypeRefresh:
		payload, ok := snapshots.Latest()
		if !ok {
			return c.SendError("no_snapshot", "no snapshot computed yet")
		}
		if !c.Enqueue(payload) {
			return ErrSendBufferFull
		}
		return nil

	default:
		return c.SendError("unknown_message_type", fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

// SendPong sends a pong message to the client
func (c *Connection) SendPong() error {
	return c.SendJSON(ServerMessage{Type: MessageTypePong})
}

// SendError sends an error message to the client
func (c *Connection) SendError(code string, message string) error {
	return c.SendJSON(ServerMessage{
		Type:    MessageTypeError,
		Code:    code,
		Message: message,
	})
}
