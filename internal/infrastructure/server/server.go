package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/CandorWorks/LinkBridge/backend/internal/api/http"
	"github.com/CandorWorks/LinkBridge/backend/internal/api/middleware"
	"github.com/CandorWorks/LinkBridge/backend/internal/api/ws"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/account"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/proxy"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/session"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/config"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/logging"
	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/monitoring"
	"github.com/CandorWorks/LinkBridge/backend/internal/linkedin"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	registry *proxy.Registry
	sessions *session.Manager
	accounts *account.Store
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger := logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)

	logger.Info("Initializing LinkBridge server",
		zap.String("port", cfg.Server.Port),
		zap.String("accounts_path", cfg.Auth.AccountsPath),
	)

	metrics := monitoring.NewMetrics()

	accounts, err := account.LoadStore(cfg.Auth.AccountsPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	vault, err := session.NewVault(cfg.Session.VaultPath, cfg.Session.VaultKey)
	if err != nil {
		return nil, fmt.Errorf("open session vault: %w", err)
	}
	if vault == nil {
		logger.Warn("Session vault disabled, sessions are memory-only")
	}
	sessions, err := session.NewManager(vault, logger)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	sessions.WithMetrics(metrics)

	registry := proxy.NewRegistry(logger)
	dispatcher := proxy.NewDispatcher(registry, logger).WithMetrics(metrics)

	client := linkedin.NewClient(cfg.LinkedIn, logger).WithMetrics(metrics)
	service := linkedin.NewService(cfg.LinkedIn.BaseURL, cfg.Pacing, logger).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(cfg.CORS))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(registry, dispatcher, sessions, service, client, cfg.Proxy, logger)
	wsHandler := ws.NewHandler(registry, dispatcher, accounts, cfg.Proxy.PingInterval, logger).WithMetrics(metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Extension socket. Auth happens in the handshake, not the middleware,
	// so the upgrade response can carry a precise status.
	router.GET("/ws", wsHandler.HandleConnection)

	authed := router.Group("/", middleware.Auth(accounts))
	authed.GET("/instances", handlers.ListInstances)
	authed.GET("/instances/:id", handlers.GetInstance)

	authed.POST("/linkedin/reactions", handlers.FetchReactions)
	authed.POST("/linkedin/comments", handlers.FetchComments)
	authed.POST("/linkedin/posts", handlers.FetchPosts)
	authed.POST("/linkedin/post", handlers.FetchPost)
	authed.POST("/linkedin/request", handlers.Execute)

	authed.POST("/session/refresh", handlers.RefreshSession)
	authed.PUT("/session", handlers.PutSession)

	logger.Info("Server initialized",
		zap.Int("accounts", accounts.Count()),
		zap.Int("sessions", sessions.Count()),
	)

	return &Server{
		router:   router,
		registry: registry,
		sessions: sessions,
		accounts: accounts,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server")
	return s.logger.Sync()
}
