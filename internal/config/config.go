package config

import "time"

// ServerConfig is the root configuration for a coordinator instance.
type ServerConfig struct {
	Instance    InstanceConfig    `yaml:"instance"`
	Server      HTTPConfig        `yaml:"server"`
	Session     SessionConfig     `yaml:"session"`
	Connections ConnectionsConfig `yaml:"connections"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// InstanceConfig identifies this coordinator.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// HTTPConfig holds the listener settings.
type HTTPConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	WSPath         string   `yaml:"ws_path"`
	AllowedOrigins []string `yaml:"allowed_origins"` // empty = allow all
}

// SessionConfig holds Session Registry settings.
type SessionConfig struct {
	// GraceDelay is how long a finished session lingers so both occupants
	// can receive the terminal broadcast before cleanup.
	GraceDelay time.Duration `yaml:"grace_delay"`

	// StrictMoves enables server-side verification of submitted boards.
	StrictMoves bool `yaml:"strict_moves"`
}

// ConnectionsConfig holds per-connection WebSocket settings.
type ConnectionsConfig struct {
	PingInterval    time.Duration `yaml:"ping_interval"`
	PongTimeout     time.Duration `yaml:"pong_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	SendBuffer      int           `yaml:"send_buffer"`
	MaxMessageBytes int64         `yaml:"max_message_bytes"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}
