package proxy

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/logging"
)

// Transport is a live connection to one extension instance. Implementations
// must be safe for concurrent writes and comparable (pointer types), since
// Unregister matches entries by handle identity.
type Transport interface {
	WriteEnvelope(env Envelope) error
}

// Instance describes a registered extension connection.
type Instance struct {
	ID          string    `json:"id"`
	ConnectedAt time.Time `json:"connected_at"`
}

type registryEntry struct {
	transport   Transport
	connectedAt time.Time
}

// Registry maps instance ids to live transports.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
	logger  *logging.Logger
}

// NewRegistry creates an empty connection registry.
func NewRegistry(logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Registry{
		entries: make(map[string]registryEntry),
		logger:  logger,
	}
}

// Register stores the transport for an instance, unconditionally replacing
// any existing entry. A reconnect supersedes the old connection; closing the
// superseded transport is that transport's own responsibility.
func (r *Registry) Register(instanceID string, t Transport) {
	r.mu.Lock()
	_, replaced := r.entries[instanceID]
	r.entries[instanceID] = registryEntry{transport: t, connectedAt: time.Now()}
	r.mu.Unlock()

	r.logger.Info("Instance registered",
		zap.String("instance_id", instanceID),
		zap.Bool("replaced", replaced),
	)
}

// Unregister removes the entry for an instance only if the stored handle is
// the one passed in. A disconnect of a superseded transport must not evict
// the connection that replaced it.
func (r *Registry) Unregister(instanceID string, t Transport) {
	r.mu.Lock()
	entry, ok := r.entries[instanceID]
	if ok && entry.transport == t {
		delete(r.entries, instanceID)
	} else {
		ok = false
	}
	r.mu.Unlock()

	if ok {
		r.logger.Info("Instance unregistered", zap.String("instance_id", instanceID))
	}
}

// IsConnected reports whether an instance currently has a live transport.
func (r *Registry) IsConnected(instanceID string) bool {
	r.mu.RLock()
	_, ok := r.entries[instanceID]
	r.mu.RUnlock()
	return ok
}

// Send writes an envelope to one instance. A missing entry and a write
// failure both surface as ErrNotConnected; a write failure additionally
// evicts the instance (identity-checked, so a racing reconnect survives).
func (r *Registry) Send(instanceID string, env Envelope) error {
	r.mu.RLock()
	entry, ok := r.entries[instanceID]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConnected, instanceID)
	}

	if err := entry.transport.WriteEnvelope(env); err != nil {
		r.logger.Warn("Transport write failed, evicting instance",
			zap.String("instance_id", instanceID),
			zap.Error(err),
		)
		r.Unregister(instanceID, entry.transport)
		return fmt.Errorf("%w: %s: %v", ErrNotConnected, instanceID, err)
	}
	return nil
}

// Broadcast writes an envelope to every registered instance, best effort.
// Instances whose write fails are evicted; delivery to the rest continues.
func (r *Registry) Broadcast(env Envelope) {
	r.mu.RLock()
	targets := make(map[string]Transport, len(r.entries))
	for id, entry := range r.entries {
		targets[id] = entry.transport
	}
	r.mu.RUnlock()

	for instanceID, t := range targets {
		if err := t.WriteEnvelope(env); err != nil {
			r.logger.Warn("Broadcast write failed, evicting instance",
				zap.String("instance_id", instanceID),
				zap.Error(err),
			)
			r.Unregister(instanceID, t)
		}
	}
}

// Instances lists registered connections, sorted by id.
func (r *Registry) Instances() []Instance {
	r.mu.RLock()
	out := make([]Instance, 0, len(r.entries))
	for instanceID, entry := range r.entries {
		out = append(out, Instance{ID: instanceID, ConnectedAt: entry.connectedAt})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of registered instances.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
