package proxy

import (
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/logging"
)

type fakeTransport struct {
	mu     sync.Mutex
	sent   []Envelope
	broken bool
}

func (f *fakeTransport) WriteEnvelope(env Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return errors.New("write on closed connection")
	}
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func nopLogger() *logging.Logger {
	return &logging.Logger{Logger: zap.NewNop()}
}

func TestRegisterAndSend(t *testing.T) {
	r := NewRegistry(nopLogger())
	tr := &fakeTransport{}

	r.Register("inst-1", tr)
	if !r.IsConnected("inst-1") {
		t.Fatal("expected inst-1 to be connected")
	}

	if err := r.Send("inst-1", Envelope{Kind: KindPing}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if tr.count() != 1 {
		t.Errorf("expected 1 envelope written, got %d", tr.count())
	}
}

func TestSendNotConnected(t *testing.T) {
	r := NewRegistry(nopLogger())

	err := r.Send("ghost", Envelope{Kind: KindPing})
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestReconnectSupersedes(t *testing.T) {
	r := NewRegistry(nopLogger())
	old := &fakeTransport{}
	fresh := &fakeTransport{}

	r.Register("inst-1", old)
	r.Register("inst-1", fresh)

	if !r.IsConnected("inst-1") {
		t.Fatal("expected inst-1 to stay connected after reconnect")
	}
	if err := r.Send("inst-1", Envelope{Kind: KindPing}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if old.count() != 0 || fresh.count() != 1 {
		t.Errorf("expected send routed to new transport, got old=%d new=%d", old.count(), fresh.count())
	}

	// A stale disconnect from the superseded transport must not evict the
	// connection that replaced it.
	r.Unregister("inst-1", old)
	if !r.IsConnected("inst-1") {
		t.Error("stale unregister evicted the new connection")
	}

	r.Unregister("inst-1", fresh)
	if r.IsConnected("inst-1") {
		t.Error("expected inst-1 disconnected after matching unregister")
	}
}

func TestSendWriteFailureEvicts(t *testing.T) {
	r := NewRegistry(nopLogger())
	tr := &fakeTransport{broken: true}

	r.Register("inst-1", tr)
	err := r.Send("inst-1", Envelope{Kind: KindPing})
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected on write failure, got %v", err)
	}
	if r.IsConnected("inst-1") {
		t.Error("expected instance evicted after write failure")
	}
}

func TestBroadcastBestEffort(t *testing.T) {
	r := NewRegistry(nopLogger())
	good1 := &fakeTransport{}
	bad := &fakeTransport{broken: true}
	good2 := &fakeTransport{}

	r.Register("a", good1)
	r.Register("b", bad)
	r.Register("c", good2)

	r.Broadcast(Envelope{Kind: KindSessionRefresh})

	if good1.count() != 1 || good2.count() != 1 {
		t.Errorf("expected delivery to healthy instances, got a=%d c=%d", good1.count(), good2.count())
	}
	if r.IsConnected("b") {
		t.Error("expected failing instance evicted during broadcast")
	}
	if !r.IsConnected("a") || !r.IsConnected("c") {
		t.Error("healthy instances must survive a broadcast with one failure")
	}
}

func TestInstancesSorted(t *testing.T) {
	r := NewRegistry(nopLogger())
	r.Register("beta", &fakeTransport{})
	r.Register("alpha", &fakeTransport{})

	list := r.Instances()
	if len(list) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(list))
	}
	if list[0].ID != "alpha" || list[1].ID != "beta" {
		t.Errorf("expected sorted ids, got %q %q", list[0].ID, list[1].ID)
	}
	if list[0].ConnectedAt.IsZero() {
		t.Error("expected connected_at to be set")
	}
	if r.Count() != 2 {
		t.Errorf("expected count 2, got %d", r.Count())
	}
}
