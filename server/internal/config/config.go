package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort        = 8080
	DefaultSendBuffer      = 16
	DefaultWriteTimeout    = 10 * time.Second
	DefaultPongWait        = 60 * time.Second
	DefaultMaxMessageBytes = 4096
)

// Config holds the server configuration parsed from the `server:` section of
// config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the chat endpoint, REST API and metrics listen on
	// (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Hub controls per-connection transport limits.
	Hub HubConfig `yaml:"hub"`
}

// HubConfig controls per-connection transport limits. These are the values a
// hot-reload may change; new connections pick them up, existing connections
// keep the limits they were opened with.
type HubConfig struct {
	// SendBuffer is the per-connection outgoing message buffer depth. A full
	// buffer counts as a delivery failure for that recipient (default 16).
	SendBuffer int `yaml:"send_buffer"`

	// WriteTimeout is the deadline for a single write to a client (default 10s).
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// PongWait is how long to wait for a pong before treating the connection
	// as dead (default 60s). Ping frames go out at 9/10 of this interval.
	PongWait time.Duration `yaml:"pong_wait"`

	// MaxMessageBytes caps a single inbound payload (default 4096).
	MaxMessageBytes int64 `yaml:"max_message_bytes"`
}

// Load reads and parses the config file at path. Missing fields are filled
// with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Hub: HubConfig{
				SendBuffer:      DefaultSendBuffer,
				WriteTimeout:    DefaultWriteTimeout,
				PongWait:        DefaultPongWait,
				MaxMessageBytes: DefaultMaxMessageBytes,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.Hub.SendBuffer <= 0 {
		return fmt.Errorf("server.hub.send_buffer must be positive")
	}
	if cfg.Server.Hub.WriteTimeout <= 0 {
		return fmt.Errorf("server.hub.write_timeout must be positive")
	}
	if cfg.Server.Hub.PongWait <= 0 {
		return fmt.Errorf("server.hub.pong_wait must be positive")
	}
	if cfg.Server.Hub.MaxMessageBytes <= 0 {
		return fmt.Errorf("server.hub.max_message_bytes must be positive")
	}
	return nil
}
