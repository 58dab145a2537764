package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/CandorWorks/LinkBridge/backend/internal/domain/proxy"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/monitoring"
)

const writeTimeout = 10 * time.Second

// Conn wraps a websocket connection behind a write mutex. gorilla permits at
// most one concurrent writer, but envelopes arrive from request handlers,
// the ping ticker, and broadcasts at once.
type Conn struct {
	ws      *websocket.Conn
	mu      sync.Mutex
	metrics *monitoring.Metrics
}

// NewConn wraps an upgraded websocket connection.
func NewConn(ws *websocket.Conn, metrics *monitoring.Metrics) *Conn {
	return &Conn{ws: ws, metrics: metrics}
}

// WriteEnvelope serializes and sends one envelope. Implements
// proxy.Transport.
func (c *Conn) WriteEnvelope(env proxy.Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.RecordWSMessage("out", string(env.Kind))
	}
	return nil
}

// ReadEnvelope blocks for the next envelope from the extension.
func (c *Conn) ReadEnvelope() (proxy.Envelope, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return proxy.Envelope{}, err
	}
	env, err := proxy.DecodeEnvelope(data)
	if err != nil {
		return proxy.Envelope{}, err
	}
	if c.metrics != nil {
		c.metrics.RecordWSMessage("in", string(env.Kind))
	}
	return env, nil
}

// Close tears the connection down.
func (c *Conn) Close() error {
	return c.ws.Close()
}
