// Package chat implements the relaychat client connection with its pre-open
// command queue.
//
// The WebSocket handshake cannot carry an application payload, so identity
// and attribute declarations must be sent as post-connection messages. A
// Client therefore accepts Send calls before Connect completes: payloads are
// buffered in submission order and flushed exactly once, head-to-tail, when
// the connection opens. After that, Send writes immediately.
//
// DeclareUserID, SetAttribute, SetAttributes and RequestAttributes wrap the
// wire-level control commands; server replies arrive as plain text on
// Messages.
package chat
