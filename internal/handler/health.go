package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phamtung-23/auth-service/internal/constants"
	"github.com/phamtung-23/auth-service/pkg/redis"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	cache *redis.Client
	start time.Time
}

func NewHealthHandler(db *gorm.DB, cache *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:    db,
		cache: cache,
		start: time.Now(),
	}
}

// Check reports service health. The database is required; Redis is
// optional, so a cache failure degrades the report without failing it.
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}

	if sqlDB, err := h.db.DB(); err != nil {
		checks["database"] = "down"
		status = http.StatusServiceUnavailable
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		checks["database"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "up"
	}

	switch {
	case !h.cache.IsEnabled():
		checks["redis"] = "disabled"
	case h.cache.Ping(c.Request.Context()) != nil:
		checks["redis"] = "down"
	default:
		checks["redis"] = "up"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": constants.AppName,
		"version": constants.AppVersion,
		"uptime":  time.Since(h.start).String(),
		"checks":  checks,
	})
}
