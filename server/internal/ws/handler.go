package ws

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relaychat/relaychat/server/internal/hub"
	"github.com/relaychat/relaychat/server/internal/protocol"
	"github.com/relaychat/relaychat/server/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins — callers should apply CORS at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Limits are the per-connection transport limits, taken from config. A
// hot-reload swaps them for connections opened afterwards.
type Limits struct {
	SendBuffer      int
	WriteTimeout    time.Duration
	PongWait        time.Duration
	MaxMessageBytes int64
}

// Handler upgrades HTTP requests to WebSocket and runs one session per
// connection: readPump feeds the control protocol sequentially in arrival
// order, writePump drains the session's outgoing buffer.
type Handler struct {
	hub    *hub.Hub
	proto  *protocol.Handler
	limits atomic.Pointer[Limits]
}

// NewHandler creates a Handler serving connections against h with the given
// initial limits.
func NewHandler(h *hub.Hub, p *protocol.Handler, l Limits) *Handler {
	hd := &Handler{hub: h, proto: p}
	hd.limits.Store(&l)
	return hd
}

// UpdateLimits replaces the limits used for connections opened from now on.
func (h *Handler) UpdateLimits(l Limits) {
	h.limits.Store(&l)
}

// ServeHTTP upgrades the connection and serves the client. Blocks until the
// connection closes; transport close and transport error are both terminal
// and run the same teardown exactly once.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	limits := *h.limits.Load()
	c := newConn(wsConn, limits)
	sess := session.New(r.RemoteAddr, c)
	if ua := r.UserAgent(); ua != "" {
		sess.Attrs().Set(session.KeyUserAgent, session.StringValue(ua))
	}

	h.hub.SessionOpened(sess)
	go c.writePump()

	h.readPump(sess, c, limits) // blocks until close or transport error

	sess.MarkClosed()
	h.hub.SessionClosed(sess)
	c.close()
}

// readPump reads inbound frames and hands each payload to the protocol
// handler. Messages from one connection are processed one at a time, in
// arrival order; that is what keeps per-session attribute writes race-free.
func (h *Handler) readPump(sess *session.Session, c *conn, limits Limits) {
	c.ws.SetReadLimit(limits.MaxMessageBytes)
	c.ws.SetReadDeadline(time.Now().Add(limits.PongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(limits.PongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				slog.Warn("transport error", "session", sess.ID(), "err", err)
			}
			return
		}
		h.proto.Handle(sess, string(data))
	}
}
