// Package session models one client's live connection and its attribute store.
//
// A Session pairs a stable identity and remote endpoint with the transport
// Sender it was opened on, plus an Attrs store holding key/value session
// metadata. Reserved keys (connectedAt, clientIP, status, and userAgent when
// the upgrade request carries one) are seeded at open; userId is set when the
// client declares it; messageCount and lastMessageTime are maintained by the
// chat path.
//
// Attribute values are a tagged union (string | integer | timestamp) so every
// reader of a reserved key can match on the expected variant.
//
// Concurrency: the session's own message-handling goroutine is the only
// attribute writer; diagnostic endpoints read concurrently through Attrs'
// read lock. The open→closed transition is atomic and one-way.
package session
