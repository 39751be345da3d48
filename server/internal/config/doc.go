// Package config loads the server configuration from the `server:` section of
// config.yaml.
//
// Config fields:
//   - HTTPPort              — port for the chat endpoint, REST API and metrics (default 8080)
//   - Hub.SendBuffer        — per-connection outgoing buffer depth (default 16)
//   - Hub.WriteTimeout      — deadline for one write to a client (default 10s)
//   - Hub.PongWait          — pong deadline before a connection is dead (default 60s)
//   - Hub.MaxMessageBytes   — inbound payload cap (default 4096)
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, onChange) hot-reloads the file on write; new connections
// pick up changed hub limits.
package config
