// Package ws maintains the persistent WebSocket connections from browser
// extensions.
//
// Each extension identifies itself with an instance id at handshake time and
// is entered into the connection registry. The read loop feeds result
// envelopes back to the proxy dispatcher, and a server-side ping keeps idle
// connections from being reaped by intermediaries.
package ws
