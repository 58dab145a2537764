// Package main is the entry point for the LinkBridge server.
//
// The server relays privileged LinkedIn calls through browser extensions
// that hold persistent WebSocket connections, and assembles paginated
// voyager results with human-like pacing.
//
// Architecture:
//
//	API client → LinkBridge → extension (WebSocket) → LinkedIn
//	                       → direct voyager client (stored session)
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	./server -port 8000 -accounts accounts.yaml
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
