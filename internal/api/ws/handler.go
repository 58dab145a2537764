package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/CandorWorks/LinkBridge/backend/internal/api/middleware"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/account"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/proxy"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/logging"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/monitoring"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Extensions connect from chrome-extension:// origins.
		return true
	},
}

// Handler manages extension WebSocket connections.
type Handler struct {
	registry     *proxy.Registry
	dispatcher   *proxy.Dispatcher
	store        *account.Store
	logger       *logging.Logger
	metrics      *monitoring.Metrics
	pingInterval time.Duration
}

// NewHandler creates a WebSocket handler.
func NewHandler(registry *proxy.Registry, dispatcher *proxy.Dispatcher, store *account.Store, pingInterval time.Duration, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &Handler{
		registry:     registry,
		dispatcher:   dispatcher,
		store:        store,
		logger:       logger,
		pingInterval: pingInterval,
	}
}

// WithMetrics attaches the metrics collector.
func (h *Handler) WithMetrics(m *monitoring.Metrics) *Handler {
	h.metrics = m
	return h
}

// HandleConnection upgrades an extension handshake and runs its read loop
// until the peer drops.
func (h *Handler) HandleConnection(c *gin.Context) {
	instanceID := c.Query("instance")
	if instanceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "instance query parameter is required"})
		return
	}
	if _, ok := h.authenticate(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
		return
	}

	wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.String("instance_id", instanceID), zap.Error(err))
		return
	}

	conn := NewConn(wsConn, h.metrics)
	defer conn.Close()

	h.registry.Register(instanceID, conn)
	if h.metrics != nil {
		h.metrics.WSConnected()
	}
	defer func() {
		// Identity-checked: a reconnect that replaced this entry in the
		// registry keeps its newer connection.
		h.registry.Unregister(instanceID, conn)
		if h.metrics != nil {
			h.metrics.WSDisconnected()
		}
	}()

	stop := make(chan struct{})
	defer close(stop)
	go h.pingLoop(instanceID, conn, stop)

	h.readLoop(instanceID, conn)
}

// authenticate accepts the key from the X-Api-Key header or, for clients
// that cannot set headers during the upgrade, an api_key query parameter.
func (h *Handler) authenticate(c *gin.Context) (*account.Account, bool) {
	key := c.GetHeader(middleware.APIKeyHeader)
	if key == "" {
		key = c.Query("api_key")
	}
	if key == "" {
		return nil, false
	}
	return h.store.Authenticate(key)
}

func (h *Handler) readLoop(instanceID string, conn *Conn) {
	for {
		env, err := conn.ReadEnvelope()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("WebSocket read failed", zap.String("instance_id", instanceID), zap.Error(err))
			} else {
				h.logger.Info("Extension disconnected", zap.String("instance_id", instanceID))
			}
			return
		}

		switch {
		case !env.Kind.Valid():
			// Drop before routing: a garbage kind must not reach the
			// dispatcher or tear down an otherwise healthy connection.
			h.logger.Warn("Dropping envelope with unknown kind",
				zap.String("instance_id", instanceID),
				zap.String("kind", string(env.Kind)),
			)
		case env.Kind == proxy.KindPing:
			pong, err := proxy.NewEnvelope(proxy.KindPong, env.CorrelationID, nil)
			if err == nil {
				if err := conn.WriteEnvelope(pong); err != nil {
					h.logger.Warn("Pong write failed", zap.String("instance_id", instanceID), zap.Error(err))
					return
				}
			}
		case env.Kind == proxy.KindPong:
			// Liveness acknowledged, nothing to route.
		case env.Kind.Response():
			h.dispatcher.Ingest(env)
		default:
			h.logger.Warn("Unexpected envelope kind from extension",
				zap.String("instance_id", instanceID),
				zap.String("kind", string(env.Kind)),
			)
		}
	}
}

// pingLoop keeps the connection warm. A failed ping write closes the
// connection, which unblocks the read loop.
func (h *Handler) pingLoop(instanceID string, conn *Conn, stop <-chan struct{}) {
	if h.pingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ping, err := proxy.NewEnvelope(proxy.KindPing, "", nil)
			if err != nil {
				return
			}
			if err := conn.WriteEnvelope(ping); err != nil {
				h.logger.Info("Ping failed, closing connection", zap.String("instance_id", instanceID))
				conn.Close()
				return
			}
		}
	}
}
