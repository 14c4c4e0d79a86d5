package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *ServerConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.WSPath, "/") {
		return fmt.Errorf("server.ws_path must start with /, got %q", c.Server.WSPath)
	}

	if c.Session.GraceDelay < 0 {
		return errors.New("session.grace_delay must be >= 0")
	}

	if c.Connections.PingInterval <= 0 {
		return errors.New("connections.ping_interval must be > 0")
	}
	if c.Connections.PongTimeout <= c.Connections.PingInterval {
		return fmt.Errorf("connections.pong_timeout (%s) must exceed ping_interval (%s)",
			c.Connections.PongTimeout, c.Connections.PingInterval)
	}
	if c.Connections.SendBuffer < 1 {
		return errors.New("connections.send_buffer must be >= 1")
	}
	if c.Connections.MaxMessageBytes < 1 {
		return errors.New("connections.max_message_bytes must be >= 1")
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
		}
		if c.Metrics.Port == c.Server.Port {
			return fmt.Errorf("metrics.port must differ from server.port (%d)", c.Server.Port)
		}
	}

	return nil
}
