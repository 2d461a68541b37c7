package router

import (
	"github.com/gin-gonic/gin"
	"github.com/phamtung-23/auth-service/config"
	"github.com/phamtung-23/auth-service/internal/handler"
	"github.com/phamtung-23/auth-service/internal/middleware"
)

type Router struct {
	authHandler   *handler.AuthHandler
	userHandler   *handler.UserHandler
	healthHandler *handler.HealthHandler

	jwtMw   *middleware.JWTMiddleware
	limiter *middleware.RateLimiter
	config  *config.Config
}

func NewRouter(
	auth *handler.AuthHandler,
	user *handler.UserHandler,
	health *handler.HealthHandler,
	jwtMw *middleware.JWTMiddleware,
	limiter *middleware.RateLimiter,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:   auth,
		userHandler:   user,
		healthHandler: health,
		jwtMw:         jwtMw,
		limiter:       limiter,
		config:        cfg,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ContextMiddleware("http"))
	router.Use(middleware.RequestTimeoutMiddleware(r.config.App.Timeout))
	router.Use(middleware.CORS())

	api := router.Group("/api")
	{
		api.GET("/health", r.healthHandler.Check)

		v1 := api.Group("/v1")
		{
			v1.Use(r.limiter.Limit("global", r.config.RateLimit.Request, r.config.RateLimit.Duration))

			r.authRoutes(v1)
			r.userRoutes(v1)
		}
	}

	return router
}
