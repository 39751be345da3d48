package hub

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/relaychat/relaychat/server/internal/session"
)

// Hub is the connection registry and broadcast engine shared by every
// connection's handling goroutine. It is constructed once at startup and
// passed by reference to each transport handler.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*session.Session]struct{}

	opened       atomic.Int64
	closed       atomic.Int64
	broadcasts   atomic.Int64
	sends        atomic.Int64
	sendFailures atomic.Int64
}

// Stats is a point-in-time snapshot of the hub's delivery counters.
type Stats struct {
	ConnectionsOpen   int
	OpenedTotal       int64
	ClosedTotal       int64
	BroadcastsTotal   int64
	SendsTotal        int64
	SendFailuresTotal int64
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{sessions: make(map[*session.Session]struct{})}
}

// Register adds s to the live set. Registering a session twice is a no-op.
func (h *Hub) Register(s *session.Session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes s and reports whether it was present. The boolean is the
// idempotence guard for double close signals: only the first removal should
// trigger leave accounting.
func (h *Hub) Unregister(s *session.Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s]; !ok {
		return false
	}
	delete(h.sessions, s)
	return true
}

// Count returns the number of currently registered sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Sessions returns a snapshot of all registered sessions.
func (h *Hub) Sessions() []*session.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*session.Session, 0, len(h.sessions))
	for s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// ForEachOpen invokes fn once per registered session that is still open.
// Iteration runs over a snapshot taken under the read lock, so concurrent
// register/unregister never corrupts it; sessions found closed are skipped
// here and removed by the close path, not by iteration.
func (h *Hub) ForEachOpen(fn func(*session.Session)) {
	for _, s := range h.Sessions() {
		if s.IsOpen() {
			fn(s)
		}
	}
}

// Broadcast delivers text to every open registered session. Each recipient is
// independent: a failed send is logged and skipped, the rest still receive
// the message. There is no retry and no queuing for later delivery.
func (h *Hub) Broadcast(text string) {
	h.broadcasts.Add(1)
	h.ForEachOpen(func(s *session.Session) {
		h.sends.Add(1)
		if err := s.Send(text); err != nil {
			h.sendFailures.Add(1)
			slog.Warn("broadcast delivery failed", "session", s.ID(), "err", err)
		}
	})
}

// SessionOpened registers s and runs the join sequence: a sender-only welcome
// with the new live count, then a join notice broadcast to all sessions.
// Registration happens first, so the new session receives its own join notice.
func (h *Hub) SessionOpened(s *session.Session) {
	h.Register(s)
	h.opened.Add(1)
	count := h.Count()

	slog.Info("session opened", "session", s.ID(), "remote", s.RemoteAddr(), "online", count)

	welcome := fmt.Sprintf("Welcome to the chat! Users online: %d", count)
	if err := s.Send(welcome); err != nil {
		slog.Warn("welcome delivery failed", "session", s.ID(), "err", err)
	}

	h.Broadcast(fmt.Sprintf("A new user joined the chat. Total users: %d", count))
}

// SessionClosed unregisters s and broadcasts the leave notice to the remaining
// sessions. Transport close and transport error both land here; a second call
// for the same session is a no-op.
func (h *Hub) SessionClosed(s *session.Session) {
	if !h.Unregister(s) {
		return
	}
	h.closed.Add(1)
	count := h.Count()

	slog.Info("session closed", "session", s.ID(), "remote", s.RemoteAddr(), "online", count)

	h.Broadcast(fmt.Sprintf("A user left the chat. Total users: %d", count))
}

// Stats returns the current counter values.
func (h *Hub) Stats() Stats {
	return Stats{
		ConnectionsOpen:   h.Count(),
		OpenedTotal:       h.opened.Load(),
		ClosedTotal:       h.closed.Load(),
		BroadcastsTotal:   h.broadcasts.Load(),
		SendsTotal:        h.sends.Load(),
		SendFailuresTotal: h.sendFailures.Load(),
	}
}
