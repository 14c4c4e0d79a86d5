package hub

import "time"

// Peer is one live client connection as the hub sees it. Send must not
// block; the transport buffers or drops.
type Peer interface {
	// ID returns a stable identifier for the connection's lifetime.
	ID() string

	// Send enqueues an outbound frame.
	Send(data []byte) error

	// Close tears down the connection.
	Close() error
}

// Config holds hub settings.
type Config struct {
	// GraceDelay is how long a finished session lingers before cleanup so
	// both occupants can receive the terminal broadcast.
	GraceDelay time.Duration

	// EventBuffer is the capacity of the inbound event queue.
	EventBuffer int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		GraceDelay:  5 * time.Second,
		EventBuffer: 1024,
	}
}

// Stats provides a snapshot of hub occupancy.
type Stats struct {
	ConnectedPeers int `json:"connectedPeers"`
	ActiveSessions int `json:"activeSessions"`
}

// event is a unit of work for the run loop.
type event struct {
	kind    eventKind
	peer    Peer
	data    []byte
	session string
}

type eventKind int

const (
	evConnect eventKind = iota
	evDisconnect
	evMessage
	evExpire
)
