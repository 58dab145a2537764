package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/CandorWorks/LinkBridge/backend/internal/infrastructure/config"
)

// CORS builds the cross-origin middleware from configuration. The method
// and header lists are fixed: they mirror what the API actually serves, so
// only origins and preflight caching are operator-tunable.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Accept",
			"Origin",
			"Authorization",
			APIKeyHeader,
			RequestIDHeader,
		},
		ExposeHeaders: []string{RequestIDHeader},
		// Auth is an API key, not a cookie, so credentialed
		// requests stay off even for wildcard origins.
		AllowCredentials: false,
		MaxAge:           cfg.MaxAge,
	})
}
