package protocol

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/relaychat/relaychat/server/internal/session"
)

// Control command prefixes. Commands are distinguished from chat content by a
// literal prefix of the payload: the transport offers a single symmetric text
// channel and the handshake cannot carry per-user data.
const (
	prefixUserID     = "USER_ID:"
	prefixSetAttr    = "SET_ATTRIBUTE:"
	prefixBatchAttrs = "SET_ATTRIBUTES_BATCH:"
	cmdGetAttrs      = "GET_ATTRIBUTES"
)

const (
	errSetAttrFormat = "Error: Invalid attribute format. Use SET_ATTRIBUTE:key:value"
	errBatchFormat   = "Error: Invalid batch format. Use SET_ATTRIBUTES_BATCH:key1:value1|key2:value2"

	// anonymousUser is the userId rendering for sessions that never declared one.
	anonymousUser = "anonymous"
)

// Broadcaster fans a chat line out to every open connection.
type Broadcaster interface {
	Broadcast(text string)
}

// Handler classifies inbound payloads as control commands or chat content and
// executes them against the sender's session. It is stateless across
// invocations except through the session's attribute store.
type Handler struct {
	broadcaster Broadcaster

	now func() time.Time // injectable for deterministic tests
}

// NewHandler creates a Handler that broadcasts chat content through b.
func NewHandler(b Broadcaster) *Handler {
	return &Handler{broadcaster: b, now: time.Now}
}

// Handle processes one inbound text payload from sess. Control commands reply
// to the sender only and are never broadcast; everything else is chat.
// The caller must invoke Handle sequentially per session, in arrival order.
func (h *Handler) Handle(sess *session.Session, payload string) {
	switch {
	case strings.HasPrefix(payload, prefixUserID):
		h.declareUserID(sess, strings.TrimPrefix(payload, prefixUserID))
	case strings.HasPrefix(payload, prefixSetAttr):
		h.setAttribute(sess, strings.TrimPrefix(payload, prefixSetAttr))
	case strings.HasPrefix(payload, prefixBatchAttrs):
		h.setAttributesBatch(sess, strings.TrimPrefix(payload, prefixBatchAttrs))
	case payload == cmdGetAttrs:
		h.listAttributes(sess)
	default:
		h.chat(sess, payload)
	}
}

// declareUserID sets the sender's userId. No reply, no broadcast.
func (h *Handler) declareUserID(sess *session.Session, id string) {
	sess.Attrs().Set(session.KeyUserID, session.StringValue(id))
	slog.Debug("user id declared", "session", sess.ID(), "userId", id)
}

// setAttribute applies one "key:value" body. The key is everything up to the
// first colon and must be non-empty; the value may itself contain colons.
func (h *Handler) setAttribute(sess *session.Session, body string) {
	key, value, ok := splitPair(body)
	if !ok {
		reply(sess, errSetAttrFormat)
		return
	}
	sess.Attrs().Set(key, session.StringValue(value))
	reply(sess, fmt.Sprintf("Attribute set: %s = %s", key, value))
}

// setAttributesBatch applies a "k1:v1|k2:v2|..." body. Well-formed pairs are
// applied, malformed pairs are silently skipped and not counted. The reply
// lists each applied pair and the total.
func (h *Handler) setAttributesBatch(sess *session.Session, body string) {
	if body == "" {
		reply(sess, errBatchFormat)
		return
	}

	var b strings.Builder
	b.WriteString("Batch attributes set:\n")
	applied := 0
	for _, pair := range strings.Split(body, "|") {
		key, value, ok := splitPair(pair)
		if !ok {
			continue
		}
		sess.Attrs().Set(key, session.StringValue(value))
		fmt.Fprintf(&b, "- %s = %s\n", key, value)
		applied++
	}
	fmt.Fprintf(&b, "Total attributes set: %d", applied)
	reply(sess, b.String())
}

// listAttributes replies with every current attribute of the sender's own
// store, reserved and caller-defined alike, sorted by key.
func (h *Handler) listAttributes(sess *session.Session) {
	var b strings.Builder
	b.WriteString("Current attributes:\n")
	for _, kv := range sess.Attrs().Snapshot() {
		fmt.Fprintf(&b, "- %s: %s\n", kv.Key, kv.Value.String())
	}
	reply(sess, b.String())
}

// chat treats payload as chat content: bumps the sender's message counters and
// broadcasts the rendered line to all connections.
func (h *Handler) chat(sess *session.Session, payload string) {
	attrs := sess.Attrs()
	attrs.IncInt(session.KeyMessageCount)
	attrs.Set(session.KeyLastMessageTime, session.TimeValue(h.now()))

	userID := anonymousUser
	if v, ok := attrs.Get(session.KeyUserID); ok {
		if s, ok := v.StringVal(); ok {
			userID = s
		}
	}

	h.broadcaster.Broadcast(fmt.Sprintf("User %s: %s", userID, payload))
}

// splitPair splits "key:value" on the first colon. A missing colon or an
// empty key is malformed.
func splitPair(body string) (key, value string, ok bool) {
	idx := strings.Index(body, ":")
	if idx <= 0 {
		return "", "", false
	}
	return body[:idx], body[idx+1:], true
}

// reply sends a control response to the sender only. A failed reply is a
// delivery failure like any other: logged, never fatal.
func reply(sess *session.Session, text string) {
	if err := sess.Send(text); err != nil {
		slog.Warn("control reply failed", "session", sess.ID(), "err", err)
	}
}
