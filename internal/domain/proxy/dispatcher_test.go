package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// respondingTransport resolves every request against the dispatcher as soon
// as it is written, simulating an extension that answers immediately.
type respondingTransport struct {
	mu         sync.Mutex
	dispatcher *Dispatcher
	result     json.RawMessage
	remoteErr  string
}

func (f *respondingTransport) WriteEnvelope(env Envelope) error {
	f.mu.Lock()
	result, remoteErr := f.result, f.remoteErr
	f.mu.Unlock()
	go f.dispatcher.Resolve(env.CorrelationID, result, remoteErr)
	return nil
}

// silentTransport accepts writes but never responds.
type silentTransport struct {
	mu   sync.Mutex
	last string
}

func (f *silentTransport) WriteEnvelope(env Envelope) error {
	f.mu.Lock()
	f.last = env.CorrelationID
	f.mu.Unlock()
	return nil
}

func (f *silentTransport) lastCorrelationID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func okResult(status int, body string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"status_code":%d,"headers":{"content-type":"application/json"},"body":%q}`, status, body))
}

func newTestDispatcher() (*Dispatcher, *Registry) {
	r := NewRegistry(nopLogger())
	return NewDispatcher(r, nopLogger()), r
}

func TestExecuteSuccess(t *testing.T) {
	d, r := newTestDispatcher()
	tr := &respondingTransport{dispatcher: d, result: okResult(200, `{"ok":true}`)}
	r.Register("inst-1", tr)

	resp, err := d.Execute(context.Background(), "inst-1", KindHTTPExecute, HTTPRequest{URL: "https://example.com", Method: "GET"}, time.Second)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if resp.Body != `{"ok":true}` {
		t.Errorf("unexpected body: %q", resp.Body)
	}
	if d.Pending() != 0 {
		t.Errorf("expected empty pending table, got %d entries", d.Pending())
	}
}

func TestExecuteNotConnected(t *testing.T) {
	d, _ := newTestDispatcher()

	_, err := d.Execute(context.Background(), "ghost", KindHTTPExecute, nil, time.Second)
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if d.Pending() != 0 {
		t.Errorf("pending entry leaked on send failure: %d", d.Pending())
	}
}

func TestExecuteTimeout(t *testing.T) {
	d, r := newTestDispatcher()
	r.Register("inst-1", &silentTransport{})

	start := time.Now()
	_, err := d.Execute(context.Background(), "inst-1", KindHTTPExecute, nil, 50*time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed < 50*time.Millisecond || elapsed > 500*time.Millisecond {
		t.Errorf("timeout fired at %v, expected near 50ms", elapsed)
	}
	if d.Pending() != 0 {
		t.Errorf("pending entry leaked after timeout: %d", d.Pending())
	}
}

func TestExecuteRemoteError(t *testing.T) {
	d, r := newTestDispatcher()
	tr := &respondingTransport{dispatcher: d, remoteErr: "tab was closed"}
	r.Register("inst-1", tr)

	_, err := d.Execute(context.Background(), "inst-1", KindHTTPExecute, nil, time.Second)
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Message != "tab was closed" {
		t.Errorf("unexpected remote message: %q", remote.Message)
	}
	if d.Pending() != 0 {
		t.Errorf("pending entry leaked after remote error: %d", d.Pending())
	}
}

func TestExecuteMalformedResult(t *testing.T) {
	tests := []struct {
		name    string
		payload json.RawMessage
	}{
		{"missing status_code", json.RawMessage(`{"body":"x"}`)},
		{"missing body", json.RawMessage(`{"status_code":200}`)},
		{"undecodable", json.RawMessage(`{{{`)},
		{"empty", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, r := newTestDispatcher()
			r.Register("inst-1", &respondingTransport{dispatcher: d, result: tt.payload})

			_, err := d.Execute(context.Background(), "inst-1", KindHTTPExecute, nil, time.Second)
			var protocol *ProtocolError
			if !errors.As(err, &protocol) {
				t.Fatalf("expected ProtocolError, got %v", err)
			}
			if d.Pending() != 0 {
				t.Errorf("pending entry leaked: %d", d.Pending())
			}
		})
	}
}

func TestExecuteCancellation(t *testing.T) {
	d, r := newTestDispatcher()
	r.Register("inst-1", &silentTransport{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := d.Execute(ctx, "inst-1", KindHTTPExecute, nil, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if d.Pending() != 0 {
		t.Errorf("pending entry leaked after cancellation: %d", d.Pending())
	}
}

func TestLateResolutionDiscarded(t *testing.T) {
	d, r := newTestDispatcher()
	tr := &silentTransport{}
	r.Register("inst-1", tr)

	_, err := d.Execute(context.Background(), "inst-1", KindHTTPExecute, nil, 20*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	// Resolving after the call terminated must neither panic nor resurrect it.
	d.Resolve(tr.lastCorrelationID(), okResult(200, "late"), "")
	if d.Pending() != 0 {
		t.Errorf("late resolution resurrected an entry: %d", d.Pending())
	}
	d.Resolve("never-existed", okResult(200, "x"), "")
}

func TestDuplicateResolutionKeepsFirstOutcome(t *testing.T) {
	tbl := NewTable()
	call, ok := tbl.add("corr-1")
	if !ok {
		t.Fatal("add failed")
	}

	if !tbl.resolve("corr-1", okResult(200, "first"), "") {
		t.Fatal("first resolve should fire")
	}
	if tbl.resolve("corr-1", okResult(500, "second"), "") {
		t.Error("second resolve should be a no-op")
	}

	<-call.done
	resp, err := decodeResult(call.payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.Body != "first" {
		t.Errorf("first outcome was overwritten: %q", resp.Body)
	}
}

func TestNoLeaksAcrossOutcomes(t *testing.T) {
	d, r := newTestDispatcher()
	r.Register("ok", &respondingTransport{dispatcher: d, result: okResult(200, "x")})
	r.Register("err", &respondingTransport{dispatcher: d, remoteErr: "nope"})
	r.Register("slow", &silentTransport{})

	if d.Pending() != 0 {
		t.Fatalf("table not empty before batch: %d", d.Pending())
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for _, inst := range []string{"ok", "err", "slow", "ghost"} {
			wg.Add(1)
			go func(inst string) {
				defer wg.Done()
				d.Execute(context.Background(), inst, KindHTTPExecute, nil, 30*time.Millisecond)
			}(inst)
		}
	}
	wg.Wait()

	if d.Pending() != 0 {
		t.Errorf("table not empty after batch: %d", d.Pending())
	}
}

func TestIngestRoutesKinds(t *testing.T) {
	d, r := newTestDispatcher()
	tr := &silentTransport{}
	r.Register("inst-1", tr)

	done := make(chan error, 1)
	go func() {
		_, err := d.Execute(context.Background(), "inst-1", KindHTTPExecute, nil, time.Second)
		done <- err
	}()

	var corr string
	for i := 0; i < 100; i++ {
		if corr = tr.lastCorrelationID(); corr != "" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if corr == "" {
		t.Fatal("request never reached transport")
	}

	d.Ingest(Envelope{Kind: KindError, CorrelationID: corr, Payload: json.RawMessage(`{"error":"blocked"}`)})

	err := <-done
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError via Ingest, got %v", err)
	}
	if remote.Message != "blocked" {
		t.Errorf("unexpected message %q", remote.Message)
	}

	// Request kinds and unknown kinds on the ingestion path are dropped.
	d.Ingest(Envelope{Kind: KindHTTPExecute, CorrelationID: "x"})
	d.Ingest(Envelope{Kind: Kind("mystery"), CorrelationID: "x"})
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(KindHTTPExecute, "corr-9", HTTPRequest{URL: "https://example.com/a", Method: "POST", Body: "b"})
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}
	raw, err := env.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	if decoded.Kind != KindHTTPExecute || decoded.CorrelationID != "corr-9" {
		t.Errorf("round trip mismatch: %+v", decoded)
	}
	if !decoded.Kind.Valid() {
		t.Error("decoded kind should be valid")
	}
	if Kind("nonsense").Valid() {
		t.Error("unknown kind should be invalid")
	}
}
