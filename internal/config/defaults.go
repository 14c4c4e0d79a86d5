package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 5678
	DefaultWSPath          = "/ws"
	DefaultGraceDelay      = 5 * time.Second
	DefaultPingInterval    = 30 * time.Second
	DefaultPongTimeout     = 60 * time.Second
	DefaultWriteTimeout    = 5 * time.Second
	DefaultSendBuffer      = 64
	DefaultMaxMessageBytes = 4096
	DefaultMetricsPort     = 9090
	DefaultMetricsPath     = "/metrics"
)

func (c *ServerConfig) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = DefaultWSPath
	}

	if c.Session.GraceDelay == 0 {
		c.Session.GraceDelay = DefaultGraceDelay
	}

	if c.Connections.PingInterval == 0 {
		c.Connections.PingInterval = DefaultPingInterval
	}
	if c.Connections.PongTimeout == 0 {
		c.Connections.PongTimeout = DefaultPongTimeout
	}
	if c.Connections.WriteTimeout == 0 {
		c.Connections.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connections.SendBuffer == 0 {
		c.Connections.SendBuffer = DefaultSendBuffer
	}
	if c.Connections.MaxMessageBytes == 0 {
		c.Connections.MaxMessageBytes = DefaultMaxMessageBytes
	}

	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
