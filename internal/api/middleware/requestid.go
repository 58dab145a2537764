package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/CandorWorks/LinkBridge/backend/internal/shared/id"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// RequestIDHeader is the response header the id is echoed on.
const RequestIDHeader = "X-Request-Id"

// RequestID stamps every request with a sortable id so log lines from one
// call can be correlated. An id supplied by the client is trusted as-is.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = id.NewRequestID().String()
		}
		c.Set(RequestIDKey, rid)
		c.Header(RequestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom retrieves the request id set by RequestID.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
