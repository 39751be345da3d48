package protocol

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/relaychat/relaychat/server/internal/session"
)

// recordingBroadcaster captures everything handed to Broadcast.
type recordingBroadcaster struct {
	mu    sync.Mutex
	texts []string
}

func (b *recordingBroadcaster) Broadcast(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.texts = append(b.texts, text)
}

func (b *recordingBroadcaster) all() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.texts...)
}

// replySender captures sender-only replies.
type replySender struct {
	mu      sync.Mutex
	replies []string
}

func (s *replySender) Send(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, text)
	return nil
}

func (s *replySender) IsOpen() bool { return true }

func (s *replySender) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.replies...)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newFixture() (*Handler, *recordingBroadcaster, *session.Session, *replySender) {
	b := &recordingBroadcaster{}
	h := NewHandler(b)
	h.now = func() time.Time { return fixedNow }
	sender := &replySender{}
	sess := session.New("198.51.100.4:40000", sender)
	return h, b, sess, sender
}

func TestUserID_SetsAttributeWithoutReplyOrBroadcast(t *testing.T) {
	h, b, sess, sender := newFixture()

	h.Handle(sess, "USER_ID:alice")

	v, ok := sess.Attrs().Get(session.KeyUserID)
	if !ok {
		t.Fatal("userId: not set")
	}
	if got, _ := v.StringVal(); got != "alice" {
		t.Errorf("userId: got %q, want alice", got)
	}
	if got := len(sender.all()); got != 0 {
		t.Errorf("replies: got %d, want 0", got)
	}
	if got := len(b.all()); got != 0 {
		t.Errorf("broadcasts: got %d, want 0", got)
	}
}

func TestSetAttribute_Success(t *testing.T) {
	h, b, sess, sender := newFixture()

	h.Handle(sess, "SET_ATTRIBUTE:color:blue")

	v, ok := sess.Attrs().Get("color")
	if !ok {
		t.Fatal("color: not set")
	}
	if got, _ := v.StringVal(); got != "blue" {
		t.Errorf("color: got %q, want blue", got)
	}

	replies := sender.all()
	if len(replies) != 1 || replies[0] != "Attribute set: color = blue" {
		t.Errorf("reply: got %v", replies)
	}
	if got := len(b.all()); got != 0 {
		t.Errorf("broadcasts: got %d, want 0", got)
	}
}

func TestSetAttribute_ValueMayContainColons(t *testing.T) {
	h, _, sess, _ := newFixture()

	h.Handle(sess, "SET_ATTRIBUTE:endpoint:ws://host:8080/chat")

	v, _ := sess.Attrs().Get("endpoint")
	if got, _ := v.StringVal(); got != "ws://host:8080/chat" {
		t.Errorf("endpoint: got %q", got)
	}
}

func TestSetAttribute_Malformed(t *testing.T) {
	for _, body := range []string{"novalue", ":empty-key"} {
		h, b, sess, sender := newFixture()
		before := sess.Attrs().Len()

		h.Handle(sess, "SET_ATTRIBUTE:"+body)

		replies := sender.all()
		if len(replies) != 1 || replies[0] != "Error: Invalid attribute format. Use SET_ATTRIBUTE:key:value" {
			t.Errorf("%q: reply got %v", body, replies)
		}
		if got := sess.Attrs().Len(); got != before {
			t.Errorf("%q: attribute count changed from %d to %d", body, before, got)
		}
		if got := len(b.all()); got != 0 {
			t.Errorf("%q: broadcasts: got %d, want 0", body, got)
		}
	}
}

func TestBatch_MixedPairs(t *testing.T) {
	h, _, sess, sender := newFixture()

	h.Handle(sess, "SET_ATTRIBUTES_BATCH:a:1|b:2|bad")

	for key, want := range map[string]string{"a": "1", "b": "2"} {
		v, ok := sess.Attrs().Get(key)
		if !ok {
			t.Fatalf("%s: not set", key)
		}
		if got, _ := v.StringVal(); got != want {
			t.Errorf("%s: got %q, want %q", key, got, want)
		}
	}
	if _, ok := sess.Attrs().Get("bad"); ok {
		t.Error("bad: attribute created for malformed segment")
	}

	replies := sender.all()
	if len(replies) != 1 {
		t.Fatalf("replies: got %d, want 1", len(replies))
	}
	reply := replies[0]
	for _, want := range []string{"Batch attributes set:", "- a = 1", "- b = 2", "Total attributes set: 2"} {
		if !strings.Contains(reply, want) {
			t.Errorf("reply missing %q:\n%s", want, reply)
		}
	}
	if strings.Contains(reply, "bad") {
		t.Errorf("reply mentions malformed segment:\n%s", reply)
	}
}

func TestBatch_EmptyBody(t *testing.T) {
	h, _, sess, sender := newFixture()
	before := sess.Attrs().Len()

	h.Handle(sess, "SET_ATTRIBUTES_BATCH:")

	replies := sender.all()
	if len(replies) != 1 || replies[0] != "Error: Invalid batch format. Use SET_ATTRIBUTES_BATCH:key1:value1|key2:value2" {
		t.Errorf("reply: got %v", replies)
	}
	if got := sess.Attrs().Len(); got != before {
		t.Errorf("attribute count changed from %d to %d", before, got)
	}
}

func TestBatch_AllMalformedCountsZero(t *testing.T) {
	h, _, sess, sender := newFixture()

	h.Handle(sess, "SET_ATTRIBUTES_BATCH:bad|:worse")

	replies := sender.all()
	if len(replies) != 1 || !strings.Contains(replies[0], "Total attributes set: 0") {
		t.Errorf("reply: got %v", replies)
	}
}

func TestGetAttributes_ListsReservedAndCustom(t *testing.T) {
	h, _, sess, sender := newFixture()
	h.Handle(sess, "SET_ATTRIBUTE:color:blue")

	h.Handle(sess, "GET_ATTRIBUTES")

	replies := sender.all()
	if len(replies) != 2 {
		t.Fatalf("replies: got %d, want 2 (set confirmation + listing)", len(replies))
	}
	listing := replies[1]
	for _, want := range []string{"Current attributes:", "- color: blue", "- status: online", "- clientIP: 198.51.100.4", "- connectedAt: "} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q:\n%s", want, listing)
		}
	}
}

func TestGetAttributes_ExactMatchOnly(t *testing.T) {
	h, b, sess, _ := newFixture()

	h.Handle(sess, "GET_ATTRIBUTES please")

	// Not an exact match — treated as chat.
	broadcasts := b.all()
	if len(broadcasts) != 1 || broadcasts[0] != "User anonymous: GET_ATTRIBUTES please" {
		t.Errorf("broadcasts: got %v", broadcasts)
	}
}

func TestChat_AnonymousAndCounters(t *testing.T) {
	h, b, sess, _ := newFixture()

	h.Handle(sess, "hello world")

	broadcasts := b.all()
	if len(broadcasts) != 1 || broadcasts[0] != "User anonymous: hello world" {
		t.Errorf("broadcasts: got %v", broadcasts)
	}

	v, _ := sess.Attrs().Get(session.KeyMessageCount)
	if n, _ := v.IntVal(); n != 1 {
		t.Errorf("messageCount: got %d, want 1", n)
	}
	v, _ = sess.Attrs().Get(session.KeyLastMessageTime)
	if ts, _ := v.TimeVal(); !ts.Equal(fixedNow) {
		t.Errorf("lastMessageTime: got %v, want %v", ts, fixedNow)
	}
}

func TestChat_UsesDeclaredUserID(t *testing.T) {
	h, b, sess, _ := newFixture()

	h.Handle(sess, "USER_ID:alice")
	h.Handle(sess, "hi there")
	h.Handle(sess, "second line")

	broadcasts := b.all()
	if len(broadcasts) != 2 {
		t.Fatalf("broadcasts: got %d, want 2", len(broadcasts))
	}
	if broadcasts[0] != "User alice: hi there" {
		t.Errorf("first chat line: got %q", broadcasts[0])
	}

	v, _ := sess.Attrs().Get(session.KeyMessageCount)
	if n, _ := v.IntVal(); n != 2 {
		t.Errorf("messageCount: got %d, want 2", n)
	}
}
