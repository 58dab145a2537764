package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/logging"
)

// DefaultTimeout bounds proxied calls when the caller supplies none.
const DefaultTimeout = 30 * time.Second

// Metrics is the observability hook the dispatcher reports into.
type Metrics interface {
	RecordProxyCall(kind, outcome string, seconds float64)
	SetPendingCalls(n int)
}

// Dispatcher turns the asynchronous envelope exchange with extension
// instances into synchronous calls with timeout and error propagation.
type Dispatcher struct {
	registry *Registry
	pending  *Table
	logger   *logging.Logger
	metrics  Metrics
}

// NewDispatcher creates a dispatcher over the given registry with its own
// pending-call table.
func NewDispatcher(registry *Registry, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Dispatcher{
		registry: registry,
		pending:  NewTable(),
		logger:   logger,
	}
}

// WithMetrics attaches an observability hook.
func (d *Dispatcher) WithMetrics(m Metrics) *Dispatcher {
	d.metrics = m
	return d
}

// Pending returns the number of in-flight calls.
func (d *Dispatcher) Pending() int {
	return d.pending.Len()
}

// Execute sends a correlated request to an instance and waits for its
// response. It returns ErrNotConnected if the instance has no live
// transport, ErrTimeout if no response arrives within timeout, a
// *RemoteError if the instance reported failure, a *ProtocolError if the
// response payload is malformed, or the caller's context error on
// cancellation. The pending entry is removed on every exit path.
func (d *Dispatcher) Execute(ctx context.Context, instanceID string, kind Kind, payload any, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	correlationID, call := d.register()
	defer func() {
		d.pending.remove(correlationID)
		d.reportPending()
	}()
	d.reportPending()

	env, err := NewEnvelope(kind, correlationID, payload)
	if err != nil {
		return nil, fmt.Errorf("encode request payload: %w", err)
	}

	start := time.Now()
	if err := d.registry.Send(instanceID, env); err != nil {
		d.record(kind, "not_connected", start)
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-call.done:
		if call.remoteErr != "" {
			d.record(kind, "remote_error", start)
			return nil, &RemoteError{Message: call.remoteErr}
		}
		resp, err := decodeResult(call.payload)
		if err != nil {
			d.record(kind, "protocol_error", start)
			return nil, err
		}
		d.record(kind, "ok", start)
		return resp, nil

	case <-timer.C:
		d.record(kind, "timeout", start)
		d.logger.Warn("Proxied call timed out",
			zap.String("instance_id", instanceID),
			zap.String("kind", string(kind)),
			zap.String("correlation_id", correlationID),
			zap.Duration("timeout", timeout),
		)
		return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)

	case <-ctx.Done():
		d.record(kind, "cancelled", start)
		return nil, ctx.Err()
	}
}

// Resolve completes the pending call for a correlation id. Unknown ids
// (already timed out, already resolved, never existed) are logged and
// discarded; this never fails.
func (d *Dispatcher) Resolve(correlationID string, payload json.RawMessage, remoteErr string) {
	if correlationID == "" {
		d.logger.Debug("Dropping resolution without correlation id")
		return
	}
	if !d.pending.resolve(correlationID, payload, remoteErr) {
		d.logger.Debug("Discarding late or unknown resolution",
			zap.String("correlation_id", correlationID),
		)
	}
}

// Ingest routes a response envelope from the extension socket into the
// pending-call table. Request kinds are not valid here and are dropped.
func (d *Dispatcher) Ingest(env Envelope) {
	switch env.Kind {
	case KindHTTPResult, KindSessionState:
		d.Resolve(env.CorrelationID, env.Payload, "")
	case KindError:
		var p errorPayload
		if err := sonic.Unmarshal(env.Payload, &p); err != nil || p.Error == "" {
			p.Error = "unspecified remote error"
		}
		d.Resolve(env.CorrelationID, nil, p.Error)
	case KindHTTPExecute, KindSessionRefresh, KindPing, KindPong:
		d.logger.Warn("Dropping non-response envelope on ingestion path",
			zap.String("kind", string(env.Kind)),
		)
	default:
		d.logger.Warn("Dropping envelope with unknown kind",
			zap.String("kind", string(env.Kind)),
		)
	}
}

// register mints a correlation id unique among in-flight calls. UUIDv4
// collisions are negligible, but the table insert is checked anyway so a
// collision regenerates instead of crossing two calls' results.
func (d *Dispatcher) register() (string, *pendingCall) {
	for {
		correlationID := uuid.NewString()
		if call, ok := d.pending.add(correlationID); ok {
			return correlationID, call
		}
	}
}

func (d *Dispatcher) record(kind Kind, outcome string, start time.Time) {
	if d.metrics != nil {
		d.metrics.RecordProxyCall(string(kind), outcome, time.Since(start).Seconds())
	}
}

func (d *Dispatcher) reportPending() {
	if d.metrics != nil {
		d.metrics.SetPendingCalls(d.pending.Len())
	}
}

// decodeResult validates the shape of a successful response payload.
func decodeResult(payload json.RawMessage) (*Response, error) {
	if len(payload) == 0 {
		return nil, &ProtocolError{Reason: "empty result payload"}
	}
	var result HTTPResult
	if err := sonic.Unmarshal(payload, &result); err != nil {
		return nil, &ProtocolError{Reason: "undecodable result payload", Err: err}
	}
	if result.StatusCode == nil {
		return nil, &ProtocolError{Reason: "missing status_code"}
	}
	if result.Body == nil {
		return nil, &ProtocolError{Reason: "missing body"}
	}
	return &Response{
		StatusCode: *result.StatusCode,
		Headers:    result.Headers,
		Body:       *result.Body,
	}, nil
}
