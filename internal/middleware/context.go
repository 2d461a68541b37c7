package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phamtung-23/auth-service/internal/constants"
	ctxutil "github.com/phamtung-23/auth-service/pkg/context"
	"github.com/phamtung-23/auth-service/pkg/logger"
)

// ContextMiddleware tags every request context with a request id, client
// metadata and a start time, so downstream log entries correlate.
func ContextMiddleware(module string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" {
			requestID = newRequestID()
		}

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, ctxutil.RequestIDKey, requestID)
		ctx = context.WithValue(ctx, ctxutil.ClientIPKey, c.ClientIP())
		ctx = context.WithValue(ctx, ctxutil.UserAgentKey, c.GetHeader(constants.HeaderUserAgent))
		ctx = ctxutil.NewContext(ctx, module, c.FullPath())

		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(constants.HeaderXRequestID, requestID)

		logger.InfoWithContext(ctx, "Request started").
			String("method", c.Request.Method).
			String("path", c.Request.URL.Path).
			Log()

		c.Next()

		logger.InfoWithContext(ctx, "Request completed").
			String("method", c.Request.Method).
			String("path", c.Request.URL.Path).
			Int("status_code", c.Writer.Status()).
			Int("response_size", c.Writer.Size()).
			Duration(ctxutil.GetDuration(ctx)).
			Log()
	}
}

// RequestTimeoutMiddleware bounds request handling time
func RequestTimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := ctxutil.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func newRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf)
}
