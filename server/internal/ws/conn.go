package ws

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var (
	errConnClosed     = errors.New("connection closed")
	errSendBufferFull = errors.New("send buffer full")
)

// conn adapts one gorilla connection to session.Sender. Outgoing messages go
// through a buffered channel drained by writePump, so one slow client blocks
// neither the broadcasting goroutine nor other connections.
type conn struct {
	ws           *websocket.Conn
	send         chan string
	quit         chan struct{}
	quitOnce     sync.Once
	closed       atomic.Bool
	writeTimeout time.Duration
	pingPeriod   time.Duration
}

func newConn(ws *websocket.Conn, l Limits) *conn {
	return &conn{
		ws:           ws,
		send:         make(chan string, l.SendBuffer),
		quit:         make(chan struct{}),
		writeTimeout: l.WriteTimeout,
		pingPeriod:   l.PongWait * 9 / 10,
	}
}

// Send implements session.Sender. It enqueues without blocking; a full buffer
// is a delivery failure for this recipient only.
func (c *conn) Send(text string) error {
	if c.closed.Load() {
		return errConnClosed
	}
	select {
	case c.send <- text:
		return nil
	case <-c.quit:
		return errConnClosed
	default:
		return errSendBufferFull
	}
}

// IsOpen implements session.Sender.
func (c *conn) IsOpen() bool {
	return !c.closed.Load()
}

// close marks the connection dead and stops writePump. Safe to call more than
// once; the send channel is never closed so racing Sends cannot panic.
func (c *conn) close() {
	c.closed.Store(true)
	c.quitOnce.Do(func() { close(c.quit) })
}

// writePump drains the send channel onto the socket and emits periodic ping
// frames. Runs in its own goroutine per connection; owns all writes.
func (c *conn) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case <-c.quit:
			c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
			return

		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				c.closed.Store(true)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.closed.Store(true)
				return
			}
		}
	}
}
