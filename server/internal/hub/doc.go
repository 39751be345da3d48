// Package hub implements the connection registry and broadcast engine.
//
// One Hub instance exists per process. Every connection's handling goroutine
// shares it: open/close transitions mutate the registry, chat messages fan out
// through Broadcast. A session is registered while and only while it is
// believed open; the live count is the registry's cardinality.
//
// Broadcast is best-effort and per-recipient independent — one connection's
// failing send never blocks or aborts delivery to the others, and a missed
// message is permanently lost to that recipient.
//
// SessionOpened/SessionClosed carry the lifecycle side effects: welcome line
// to the new session, join/leave notices to everyone. The join notice reaches
// the joining session itself because registration precedes the broadcast.
package hub
