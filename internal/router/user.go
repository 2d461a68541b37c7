package router

import (
	"github.com/gin-gonic/gin"
	"github.com/phamtung-23/auth-service/internal/model"
)

func (r *Router) userRoutes(version *gin.RouterGroup) {
	// Admin-only user administration
	users := version.Group("/users")
	users.Use(r.jwtMw.RequireAuth(), r.jwtMw.RequireRole(model.RoleAdmin))
	{
		users.GET("", r.userHandler.List)
	}
}
