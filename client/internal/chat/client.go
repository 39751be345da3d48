package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrClosed is returned by Send and Connect after Close.
var ErrClosed = errors.New("client closed")

type state int

const (
	stateConnecting state = iota
	stateOpen
	stateClosed
)

// Client is a chat client over one WebSocket connection. Sends requested
// before the connection is open are queued in submission order and flushed
// exactly once when it opens; nothing is dropped, duplicated or reordered.
type Client struct {
	url string

	mu      sync.Mutex
	st      state
	pending []string
	conn    *websocket.Conn

	messages  chan string
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a Client for the given ws:// URL. The client starts in the
// connecting state: Send queues until Connect succeeds.
func New(url string) *Client {
	return &Client{
		url:      url,
		messages: make(chan string, 16),
		done:     make(chan struct{}),
	}
}

// Send delivers payload to the server, or queues it if the connection is not
// yet open. It returns queued=true when the payload was buffered for the open
// transition — a queued request is pending, not failed.
func (c *Client) Send(payload string) (queued bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.st {
	case stateClosed:
		return false, ErrClosed
	case stateConnecting:
		c.pending = append(c.pending, payload)
		return true, nil
	}
	return false, c.writeText(payload)
}

// Connect dials the server and transitions the client to open, flushing any
// queued payloads head-to-tail before any later Send can interleave. It then
// starts the receive loop feeding Messages.
func (c *Client) Connect(ctx context.Context) error {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if resp != nil {
		resp.Body.Close() //nolint:errcheck
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}

	c.mu.Lock()
	if c.st != stateConnecting {
		st := c.st
		c.mu.Unlock()
		conn.Close()
		if st == stateOpen {
			return errors.New("already connected")
		}
		return ErrClosed
	}
	c.conn = conn
	for _, payload := range c.pending {
		if err := c.writeText(payload); err != nil {
			c.st = stateClosed
			c.conn = nil
			c.mu.Unlock()
			conn.Close()
			return fmt.Errorf("flush queued payload: %w", err)
		}
	}
	c.pending = nil
	c.st = stateOpen
	c.mu.Unlock()

	c.wg.Add(1)
	go c.readLoop(conn)
	return nil
}

// Messages returns the channel of text messages received from the server.
// It is closed when the connection ends.
func (c *Client) Messages() <-chan string { return c.messages }

// Close tears the connection down. Safe to call more than once; Send returns
// ErrClosed afterwards.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.st = stateClosed
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()

		close(c.done)
		if conn != nil {
			conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
			conn.Close()
		}
	})
	c.wg.Wait()
	return nil
}

// --- wire protocol helpers --------------------------------------------------

// DeclareUserID sends the USER_ID control command.
func (c *Client) DeclareUserID(id string) (bool, error) {
	return c.Send("USER_ID:" + id)
}

// SetAttribute sends the SET_ATTRIBUTE control command for one key/value.
func (c *Client) SetAttribute(key, value string) (bool, error) {
	return c.Send("SET_ATTRIBUTE:" + key + ":" + value)
}

// SetAttributes sends one SET_ATTRIBUTES_BATCH command covering every pair in
// attrs. Pairs are sent in sorted key order so the request is deterministic.
func (c *Client) SetAttributes(attrs map[string]string) (bool, error) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+":"+attrs[k])
	}
	return c.Send("SET_ATTRIBUTES_BATCH:" + strings.Join(pairs, "|"))
}

// RequestAttributes sends the GET_ATTRIBUTES control command. The server's
// listing arrives on Messages.
func (c *Client) RequestAttributes() (bool, error) {
	return c.Send("GET_ATTRIBUTES")
}

// --- internal ---------------------------------------------------------------

// writeText writes one text frame. Callers hold c.mu.
func (c *Client) writeText(payload string) error {
	return c.conn.WriteMessage(websocket.TextMessage, []byte(payload))
}

// readLoop receives server messages until the connection ends, then marks the
// client closed and closes Messages.
func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()
	defer close(c.messages)
	defer func() {
		c.mu.Lock()
		c.st = stateClosed
		c.mu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case c.messages <- string(data):
		case <-c.done:
			return
		}
	}
}
