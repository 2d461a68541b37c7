package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phamtung-23/auth-service/internal/constants"
	"github.com/phamtung-23/auth-service/pkg/logger"
	"github.com/phamtung-23/auth-service/pkg/redis"
	"go.uber.org/zap"
)

// RateLimiter throttles clients per IP. Counters live in Redis when it is
// available; otherwise an in-memory sliding window takes over, which is
// per-instance but still bounds abuse.
type RateLimiter struct {
	client *redis.Client

	mu      sync.Mutex
	windows map[string][]time.Time
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{
		client:  client,
		windows: make(map[string][]time.Time),
	}
}

// Limit returns a middleware enforcing max requests per window for the
// given scope. Scopes keep the global and auth-specific counters apart.
func (rl *RateLimiter) Limit(scope string, max int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s%s:%s", constants.CacheKeyRateLimit, scope, c.ClientIP())

		allowed := rl.allow(c, key, max, window)
		if !allowed {
			logger.GetLogger().Warn("Rate limit exceeded",
				zap.String("scope", scope),
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, constants.BuildErrorResponse(
				constants.MsgTooManyReqs, "RATE_LIMITED", nil,
			))
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(c *gin.Context, key string, max int, window time.Duration) bool {
	if rl.client != nil && rl.client.IsEnabled() {
		count, err := rl.client.Increment(c.Request.Context(), key, window)
		if err == nil {
			return count <= int64(max)
		}
		logger.GetLogger().Warn("Rate limit counter unavailable, using in-memory fallback",
			zap.Error(err))
	}

	return rl.allowInMemory(key, max, window)
}

// allowInMemory is a sliding-window counter over request timestamps
func (rl *RateLimiter) allowInMemory(key string, max int, window time.Duration) bool {
	now := time.Now()
	cutoff := now.Add(-window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	times := rl.windows[key]
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= max {
		rl.windows[key] = kept
		return false
	}

	rl.windows[key] = append(kept, now)
	return true
}
