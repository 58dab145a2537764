package proxy

import (
	"encoding/json"
	"sync"
)

// pendingCall is one in-flight correlated request. The outcome slots are
// written exactly once, before done is closed; readers only touch them
// after <-done.
type pendingCall struct {
	done      chan struct{}
	once      sync.Once
	payload   json.RawMessage
	remoteErr string
}

func (c *pendingCall) resolve(payload json.RawMessage, remoteErr string) bool {
	fired := false
	c.once.Do(func() {
		c.payload = payload
		c.remoteErr = remoteErr
		close(c.done)
		fired = true
	})
	return fired
}

// Table holds pending calls keyed by correlation id. Entries are created and
// removed only by the dispatcher; Resolve fires the completion signal but
// never removes, so the call's own cleanup path stays the single owner of
// the entry lifetime.
type Table struct {
	mu    sync.Mutex
	calls map[string]*pendingCall
}

// NewTable creates an empty pending-call table.
func NewTable() *Table {
	return &Table{calls: make(map[string]*pendingCall)}
}

// add registers a pending call. Returns false if the correlation id is
// already in flight.
func (t *Table) add(correlationID string) (*pendingCall, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.calls[correlationID]; exists {
		return nil, false
	}
	call := &pendingCall{done: make(chan struct{})}
	t.calls[correlationID] = call
	return call, true
}

// remove drops a pending call. Safe to call for ids already removed.
func (t *Table) remove(correlationID string) {
	t.mu.Lock()
	delete(t.calls, correlationID)
	t.mu.Unlock()
}

// resolve fires the completion signal for a pending call. Returns false if
// the id is unknown (already terminated or never existed) or the call was
// already resolved; both are discarded by the caller.
func (t *Table) resolve(correlationID string, payload json.RawMessage, remoteErr string) bool {
	t.mu.Lock()
	call, ok := t.calls[correlationID]
	t.mu.Unlock()

	if !ok {
		return false
	}
	return call.resolve(payload, remoteErr)
}

// Len returns the number of in-flight calls.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}
