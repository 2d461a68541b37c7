package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phamtung-23/auth-service/internal/constants"
	"github.com/phamtung-23/auth-service/pkg/logger"
)

// RequestLogging records every request with status and latency
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.LogRequest(
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start).Milliseconds(),
			c.ClientIP(),
			c.GetHeader(constants.HeaderUserAgent),
		)
	}
}

// Recovery converts panics into a 500 response in the standard envelope
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.LogPanic(recovered)
				c.AbortWithStatusJSON(http.StatusInternalServerError, constants.BuildErrorResponse(
					constants.MsgInternalError, "INTERNAL_ERROR", nil,
				))
			}
		}()

		c.Next()
	}
}
