package api

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	State       string `json:"state"`
	Connections int    `json:"connections"`
}

// SessionSummary is one session entry in GET /api/v1/sessions.
type SessionSummary struct {
	ID              string `json:"id"`
	RemoteAddr      string `json:"remote_addr"`
	UserID          string `json:"user_id,omitempty"`
	Status          string `json:"status"`
	MessageCount    int64  `json:"message_count"`
	ConnectedAt     string `json:"connected_at"`                // RFC3339
	LastMessageTime string `json:"last_message_time,omitempty"` // RFC3339
}

// SessionDetail is the payload for GET /api/v1/sessions/{id}: the summary plus
// the full attribute listing, reserved and caller-defined alike.
type SessionDetail struct {
	SessionSummary
	Attributes map[string]string `json:"attributes"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
