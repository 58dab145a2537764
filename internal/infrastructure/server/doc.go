// Package server wires configuration, logging, metrics, the connection
// registry, and the HTTP/WebSocket surfaces into a runnable service.
package server
