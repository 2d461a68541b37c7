package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phamtung-23/auth-service/pkg/redis"
	"go.uber.org/zap"
)

func newLimitedRouter(t *testing.T, max int, window time.Duration) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// Redis disabled forces the in-memory fallback
	client, err := redis.NewClient(redis.Config{Enabled: false}, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to build redis client: %v", err)
	}

	limiter := NewRateLimiter(client)
	router := gin.New()
	router.GET("/ping", limiter.Limit("test", max, window), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = ip + ":12345"
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiterAllowsUpToMax(t *testing.T) {
	router := newLimitedRouter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if code := doRequest(router, "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}

	if code := doRequest(router, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 past the limit, got %d", code)
	}
}

func TestRateLimiterIsPerClient(t *testing.T) {
	router := newLimitedRouter(t, 1, time.Minute)

	if code := doRequest(router, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("first client: expected 200, got %d", code)
	}
	if code := doRequest(router, "10.0.0.2"); code != http.StatusOK {
		t.Fatalf("second client: expected 200, got %d", code)
	}
	if code := doRequest(router, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("first client: expected 429, got %d", code)
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	router := newLimitedRouter(t, 1, 50*time.Millisecond)

	if code := doRequest(router, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := doRequest(router, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside the window, got %d", code)
	}

	time.Sleep(60 * time.Millisecond)

	if code := doRequest(router, "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("expected 200 after the window passed, got %d", code)
	}
}
