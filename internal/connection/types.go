package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrSendBufferFull = errors.New("send buffer full")
	ErrAlreadyClosed = errors.New("already closed")
)

// ClientConfig configures a single WebSocket connection.
type ClientConfig struct {
	PingInterval    time.Duration // How often to ping the client
	PongTimeout     time.Duration // Max silence before the connection is stale
	WriteTimeout    time.Duration // Write deadline for sends
	SendBuffer      int           // Outbound frame buffer size
	MaxMessageBytes int64         // Read limit per frame
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval:    30 * time.Second,
		PongTimeout:     60 * time.Second,
		WriteTimeout:    5 * time.Second,
		SendBuffer:      64,
		MaxMessageBytes: 4096,
	}
}
