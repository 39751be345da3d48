package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/relaychat/relaychat/server/internal/hub"
	"github.com/relaychat/relaychat/server/internal/session"
)

// Handler is the HTTP handler for all /api/v1/* endpoints. It reads live
// session state from the hub and returns JSON responses.
type Handler struct {
	hub *hub.Hub
	mux *http.ServeMux
}

// New creates a Handler wired to the given hub and registers all routes.
func New(h *hub.Hub) http.Handler {
	a := &Handler{hub: h, mux: http.NewServeMux()}

	a.mux.HandleFunc("/api/v1/health", a.health)
	a.mux.HandleFunc("/api/v1/sessions", a.listSessions)
	a.mux.HandleFunc("/api/v1/sessions/", a.getSession) // subtree — extracts {id}

	return a
}

func (a *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health — liveness plus the current live count.
func (a *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		State:       "ok",
		Connections: a.hub.Count(),
	})
}

// listSessions returns GET /api/v1/sessions — all registered sessions.
func (a *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sessions := a.hub.Sessions()
	out := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSummary(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	jsonResp(w, http.StatusOK, out)
}

// getSession returns GET /api/v1/sessions/{id} — one session with its full
// attribute listing.
func (a *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/")
	if id == "" {
		// Redirect bare /api/v1/sessions/ to list handler.
		a.listSessions(w, r)
		return
	}

	for _, s := range a.hub.Sessions() {
		if s.ID() == id {
			jsonResp(w, http.StatusOK, toDetail(s))
			return
		}
	}
	jsonErr(w, http.StatusNotFound, "session not found")
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// toSummary maps a session to its JSON summary, matching on the expected
// variant for each reserved key and ignoring anything else.
func toSummary(s *session.Session) SessionSummary {
	attrs := s.Attrs()
	out := SessionSummary{
		ID:         s.ID(),
		RemoteAddr: s.RemoteAddr(),
	}
	if v, ok := attrs.Get(session.KeyUserID); ok {
		if str, ok := v.StringVal(); ok {
			out.UserID = str
		}
	}
	if v, ok := attrs.Get(session.KeyStatus); ok {
		if str, ok := v.StringVal(); ok {
			out.Status = str
		}
	}
	if v, ok := attrs.Get(session.KeyMessageCount); ok {
		if n, ok := v.IntVal(); ok {
			out.MessageCount = n
		}
	}
	if v, ok := attrs.Get(session.KeyConnectedAt); ok {
		if t, ok := v.TimeVal(); ok {
			out.ConnectedAt = t.UTC().Format(time.RFC3339)
		}
	}
	if v, ok := attrs.Get(session.KeyLastMessageTime); ok {
		if t, ok := v.TimeVal(); ok {
			out.LastMessageTime = t.UTC().Format(time.RFC3339)
		}
	}
	return out
}

// toDetail maps a session to its JSON detail including every attribute.
func toDetail(s *session.Session) SessionDetail {
	attrs := make(map[string]string)
	for _, kv := range s.Attrs().Snapshot() {
		attrs[kv.Key] = kv.Value.String()
	}
	return SessionDetail{
		SessionSummary: toSummary(s),
		Attributes:     attrs,
	}
}
