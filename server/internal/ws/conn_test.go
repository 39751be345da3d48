package ws

import (
	"errors"
	"testing"
	"time"

	"github.com/relaychat/relaychat/server/internal/hub"
	"github.com/relaychat/relaychat/server/internal/session"
)

func smallLimits(buffer int) Limits {
	return Limits{
		SendBuffer:      buffer,
		WriteTimeout:    time.Second,
		PongWait:        time.Minute,
		MaxMessageBytes: 4096,
	}
}

func TestSend_FullBufferFailsWithoutBlocking(t *testing.T) {
	// writePump never starts, so nothing drains the buffer: a stalled peer.
	c := newConn(nil, smallLimits(1))

	if err := c.Send("first"); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	if err := c.Send("second"); !errors.Is(err, errSendBufferFull) {
		t.Errorf("Send into full buffer: got %v, want errSendBufferFull", err)
	}

	// The failure is per-recipient: another connection still accepts.
	other := newConn(nil, smallLimits(1))
	if err := other.Send("x"); err != nil {
		t.Errorf("other connection Send: %v", err)
	}
}

func TestSend_AfterClose(t *testing.T) {
	c := newConn(nil, smallLimits(4))
	c.close()

	if err := c.Send("late"); !errors.Is(err, errConnClosed) {
		t.Errorf("Send after close: got %v, want errConnClosed", err)
	}
	if c.IsOpen() {
		t.Error("IsOpen after close: got true")
	}
	c.close() // second close is a no-op, must not panic
}

func TestBroadcast_StalledPeerDoesNotStarveOthers(t *testing.T) {
	h := hub.New()

	stalled := newConn(nil, smallLimits(1))
	if err := stalled.Send("backlog"); err != nil {
		t.Fatalf("prefill: %v", err)
	}
	healthy := newConn(nil, smallLimits(4))

	h.Register(session.New("10.0.0.1:1", stalled))
	h.Register(session.New("10.0.0.2:2", healthy))

	h.Broadcast("payload")

	select {
	case got := <-healthy.send:
		if got != "payload" {
			t.Errorf("healthy recipient: got %q, want payload", got)
		}
	default:
		t.Error("healthy recipient: nothing enqueued")
	}
	if got := h.Stats().SendFailuresTotal; got != 1 {
		t.Errorf("send failures: got %d, want 1", got)
	}
	// The stalled session stays registered; only delivery failed.
	if got := h.Count(); got != 2 {
		t.Errorf("Count: got %d, want 2", got)
	}
}
