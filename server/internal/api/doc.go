// Package api implements the HTTP diagnostics surface for relaychat-server.
//
// New(hub) returns an http.Handler that serves:
//
//	GET /api/v1/health          — liveness plus current live connection count
//	GET /api/v1/sessions        — all registered sessions ([]SessionSummary)
//	GET /api/v1/sessions/{id}   — one session with its full attribute listing
//
// Metrics(hub) returns the GET /metrics handler: the hub's delivery counters
// in the Prometheus text exposition format.
//
// All endpoints respond with Content-Type: application/json (metrics
// excepted) and return 405 for non-GET methods. Session attributes are read
// concurrently with the message-handling paths through the store's read lock.
// No external HTTP framework is used.
package api
