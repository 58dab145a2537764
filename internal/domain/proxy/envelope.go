package proxy

import (
	"encoding/json"

	"github.com/bytedance/sonic"
)

// Kind discriminates envelope types on the extension socket.
type Kind string

const (
	// KindHTTPExecute asks an instance to run an HTTP call in its browser context.
	KindHTTPExecute Kind = "http_execute"
	// KindHTTPResult carries the outcome of a KindHTTPExecute request.
	KindHTTPResult Kind = "http_result"
	// KindSessionRefresh asks an instance to re-read its session cookie state.
	KindSessionRefresh Kind = "session_refresh"
	// KindSessionState carries the outcome of a KindSessionRefresh request.
	KindSessionState Kind = "session_state"
	// KindError reports a remote-side failure for a correlated request.
	KindError Kind = "error"
	// KindPing and KindPong are application-level keepalives.
	KindPing Kind = "ping"
	KindPong Kind = "pong"
)

// Valid reports whether k is a known envelope kind.
func (k Kind) Valid() bool {
	switch k {
	case KindHTTPExecute, KindHTTPResult, KindSessionRefresh, KindSessionState, KindError, KindPing, KindPong:
		return true
	}
	return false
}

// Response reports whether k carries the outcome of a correlated request.
func (k Kind) Response() bool {
	switch k {
	case KindHTTPResult, KindSessionState, KindError:
		return true
	}
	return false
}

// Envelope is the wire message exchanged with extension instances.
type Envelope struct {
	Kind          Kind            `json:"kind"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope builds an envelope, marshaling payload with sonic.
func NewEnvelope(kind Kind, correlationID string, payload any) (Envelope, error) {
	env := Envelope{Kind: kind, CorrelationID: correlationID}
	if payload != nil {
		raw, err := sonic.Marshal(payload)
		if err != nil {
			return Envelope{}, err
		}
		env.Payload = raw
	}
	return env, nil
}

// Encode serializes the envelope for the wire.
func (e Envelope) Encode() ([]byte, error) {
	return sonic.Marshal(e)
}

// DecodeEnvelope parses a wire message.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

// HTTPRequest is the payload of a KindHTTPExecute envelope. The instance
// performs the call inside its authenticated browser context.
type HTTPRequest struct {
	URL             string            `json:"url"`
	Method          string            `json:"method"`
	Headers         map[string]string `json:"headers,omitempty"`
	Body            string            `json:"body,omitempty"`
	ResponseType    string            `json:"response_type,omitempty"`
	WithCredentials bool              `json:"with_credentials"`
}

// HTTPResult is the payload of a KindHTTPResult envelope. StatusCode and
// Body are pointers so that absence is distinguishable from zero values;
// the dispatcher rejects results missing either.
type HTTPResult struct {
	StatusCode *int              `json:"status_code"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       *string           `json:"body"`
}

// Response is the validated form of HTTPResult handed back to callers.
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
}

// errorPayload is the payload of a KindError envelope.
type errorPayload struct {
	Error string `json:"error"`
}
