package connection

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dmoretti/tictac-server/internal/hub"
)

// Sink receives transport events. *hub.Hub satisfies it.
type Sink interface {
	Connect(p hub.Peer)
	Receive(p hub.Peer, data []byte)
	Disconnect(p hub.Peer)
}

// Client is one accepted WebSocket connection. It implements hub.Peer.
type Client struct {
	id     string
	cfg    ClientConfig
	logger *slog.Logger
	sink   Sink

	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce      sync.Once
	disconnectOnce sync.Once
}

// NewClient wraps an upgraded connection. Call Start to begin pumping.
func NewClient(conn *websocket.Conn, cfg ClientConfig, sink Sink, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()

	return &Client{
		id:     id,
		cfg:    cfg,
		logger: logger.With("peer_id", id),
		sink:   sink,
		conn:   conn,
		send:   make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
	}
}

// ID returns the connection identifier.
func (c *Client) ID() string {
	return c.id
}

// Send enqueues an outbound frame without blocking. A slow consumer whose
// buffer is full loses the frame.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrNotConnected
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close tears the connection down and reports the disconnect once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)

		c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.conn.Close()
	})

	c.disconnectOnce.Do(func() {
		c.sink.Disconnect(c)
	})
	return nil
}

// Start registers the client with the sink and begins the read and write
// pumps.
func (c *Client) Start() {
	c.sink.Connect(c)
	go c.writePump()
	go c.readPump()
}

// readPump reads frames until the connection drops, forwarding each to the
// sink. It owns the read side: deadlines, limits, pong handling.
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(c.cfg.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Debug("read error", "error", err)
				}
			}
			return
		}
		c.sink.Receive(c, data)
	}
}

// writePump drains the send buffer and keeps the connection alive with
// periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write error", "error", err)
				c.Close()
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				c.Close()
				return
			}
		}
	}
}
