package session

import (
	"sort"
	"sync"
)

// Reserved attribute keys populated by the server. They are set once at open
// (or maintained by the chat path) and never removed.
const (
	KeyConnectedAt     = "connectedAt"
	KeyClientIP        = "clientIP"
	KeyUserAgent       = "userAgent"
	KeyUserID          = "userId"
	KeyStatus          = "status"
	KeyMessageCount    = "messageCount"
	KeyLastMessageTime = "lastMessageTime"
)

// KV is one attribute pair in a Snapshot listing.
type KV struct {
	Key   string
	Value Value
}

// Attrs is the per-session attribute store. The session's own message-handling
// path is the only writer; diagnostic endpoints read it concurrently.
type Attrs struct {
	mu sync.RWMutex
	m  map[string]Value
}

// NewAttrs creates an empty attribute store.
func NewAttrs() *Attrs {
	return &Attrs{m: make(map[string]Value)}
}

// Set stores or replaces the value for key. Keys are never implicitly removed.
func (a *Attrs) Set(key string, v Value) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.m[key] = v
}

// Get returns the value for key and whether it is present.
func (a *Attrs) Get(key string) (Value, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.m[key]
	return v, ok
}

// Len returns the number of attributes currently stored.
func (a *Attrs) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.m)
}

// IncInt increments the integer value at key and returns the new value.
// A missing key or a non-integer value counts as 0 before the increment.
func (a *Attrs) IncInt(key string) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var n int64
	if v, ok := a.m[key]; ok {
		if i, ok := v.IntVal(); ok {
			n = i
		}
	}
	n++
	a.m[key] = IntValue(n)
	return n
}

// Snapshot returns all attributes sorted by key. The returned slice is a copy;
// concurrent writers do not affect it.
func (a *Attrs) Snapshot() []KV {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]KV, 0, len(a.m))
	for k, v := range a.m {
		out = append(out, KV{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
