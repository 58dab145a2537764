package proxy

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the registry and dispatcher.
var (
	// ErrNotConnected means the target instance has no live transport, or
	// the write to it failed. The registry does not distinguish the two.
	ErrNotConnected = errors.New("instance not connected")

	// ErrTimeout means no correlated response arrived within the deadline.
	ErrTimeout = errors.New("proxied call timed out")
)

// RemoteError is an explicit failure reported by the remote instance.
type RemoteError struct {
	Message string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote execution failed: %s", e.Message)
}

// ProtocolError means a correlated response arrived but its payload is
// malformed (undecodable, or missing status code or body).
type ProtocolError struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed proxy response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed proxy response: %s", e.Reason)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}
