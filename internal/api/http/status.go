package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CandorWorks/LinkBridge/backend/internal/domain/pagination"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/proxy"
	"github.com/CandorWorks/LinkBridge/backend/internal/domain/session"
)

// statusFor maps domain errors onto HTTP status codes. The distinction
// matters to callers: 503 means retry once the extension reconnects, 504
// means the tab is wedged, 502 means LinkedIn said no.
func statusFor(err error) int {
	var (
		remoteErr     *proxy.RemoteError
		protocolErr   *proxy.ProtocolError
		validationErr *pagination.ValidationError
	)
	switch {
	case errors.Is(err, proxy.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, proxy.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, session.ErrNoSession):
		return http.StatusConflict
	case errors.As(err, &remoteErr):
		return http.StatusBadGateway
	case errors.As(err, &protocolErr):
		return http.StatusInternalServerError
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the standard error body for a domain error.
func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
