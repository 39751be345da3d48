package session

import (
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned by Send after the session reached the closed state.
var ErrClosed = errors.New("session closed")

// Sender is the transport half of a session: an open, full-duplex,
// message-based connection that can be asked to deliver a text payload.
type Sender interface {
	// Send delivers one text message to the peer. It must not block on a slow
	// peer; a send that cannot be accepted reports an error instead.
	Send(text string) error

	// IsOpen reports whether the transport still considers the connection open.
	IsOpen() bool
}

// Session is one client's live connection: a stable identity, the remote
// endpoint captured at open time, the transport sender, and the attribute
// store. State moves open → closed exactly once and never back.
type Session struct {
	id         string
	remoteAddr string
	sender     Sender
	attrs      *Attrs
	closed     atomic.Bool

	now func() time.Time // injectable for deterministic tests
}

// New creates an open Session for the given transport sender and seeds the
// reserved attributes: connectedAt, clientIP and status. userId stays unset
// until the client declares it.
func New(remoteAddr string, sender Sender) *Session {
	s := &Session{
		id:         uuid.NewString(),
		remoteAddr: remoteAddr,
		sender:     sender,
		attrs:      NewAttrs(),
		now:        time.Now,
	}
	s.attrs.Set(KeyConnectedAt, TimeValue(s.now()))
	s.attrs.Set(KeyClientIP, StringValue(hostOnly(remoteAddr)))
	s.attrs.Set(KeyStatus, StringValue("online"))
	return s
}

// ID returns the session's identity, unique for the transport's lifetime.
func (s *Session) ID() string { return s.id }

// RemoteAddr returns the remote endpoint captured at open time.
func (s *Session) RemoteAddr() string { return s.remoteAddr }

// Attrs returns the session's attribute store.
func (s *Session) Attrs() *Attrs { return s.attrs }

// Send delivers one text message to this session's client.
func (s *Session) Send(text string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.sender.Send(text)
}

// IsOpen reports whether the session is still usable for sends.
func (s *Session) IsOpen() bool {
	return !s.closed.Load() && s.sender.IsOpen()
}

// MarkClosed transitions the session to closed. It returns true on the first
// call and false afterwards, so close and error signals from the transport can
// both be handled without double teardown.
func (s *Session) MarkClosed() bool {
	return s.closed.CompareAndSwap(false, true)
}

// hostOnly strips the port from a host:port remote address. Addresses that do
// not parse are kept verbatim.
func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
