// Package ws is the WebSocket transport for the chat hub.
//
// Handler upgrades HTTP requests at the chat endpoint and runs one session
// per connection. Each connection gets two goroutines: readPump delivers
// inbound payloads to the control protocol one at a time in arrival order,
// writePump drains a buffered outgoing channel so a slow client never blocks
// broadcasts to anyone else.
//
// The handshake carries no application payload — per-user data arrives as
// post-connection control messages, which is why the protocol package exists.
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level.
package ws
