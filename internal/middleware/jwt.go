package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phamtung-23/auth-service/internal/constants"
	apperrors "github.com/phamtung-23/auth-service/internal/errors"
	"github.com/phamtung-23/auth-service/internal/model"
	"github.com/phamtung-23/auth-service/internal/service"
	ctxutil "github.com/phamtung-23/auth-service/pkg/context"
	"github.com/phamtung-23/auth-service/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Gin context keys set by RequireAuth
const (
	GinKeyUserID = "user_id"
	GinKeyUser   = "user"
)

type JWTMiddleware struct {
	tokens *service.TokenService
	users  service.UserStore
}

func NewJWTMiddleware(tokens *service.TokenService, users service.UserStore) *JWTMiddleware {
	return &JWTMiddleware{tokens: tokens, users: users}
}

// RequireAuth validates the bearer access token, loads the user and rejects
// disabled accounts. The user lands in both the gin context and the request
// context.
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			abortUnauthorized(c, "Missing Authorization header")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid Authorization header format")
			return
		}

		claims, err := m.tokens.ParseAccessToken(tokenParts[1])
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		user, err := m.users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				logger.GetLogger().Error("Failed to load authenticated user",
					zap.Uint("user_id", claims.UserID),
					zap.Error(err))
			}
			abortUnauthorized(c, "Unknown token subject")
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusForbidden, constants.BuildErrorResponse(
				apperrors.GetErrorMessage(apperrors.ErrAccountDisabled),
				apperrors.GetErrorCode(apperrors.ErrAccountDisabled),
				nil,
			))
			c.Abort()
			return
		}

		c.Set(GinKeyUserID, user.ID)
		c.Set(GinKeyUser, user)
		c.Request = c.Request.WithContext(ctxutil.WithUserID(c.Request.Context(), user.ID))

		c.Next()
	}
}

// RequireRole gates a route to users holding one of the given roles. Must
// run after RequireAuth.
func (m *JWTMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortUnauthorized(c, "Role check before authentication")
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		logger.GetLogger().Warn("Forbidden by role",
			zap.Uint("user_id", user.ID),
			zap.String("role", string(user.Role)),
			zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusForbidden, constants.BuildErrorResponse(
			constants.MsgForbidden, "FORBIDDEN", nil,
		))
		c.Abort()
	}
}

// CurrentUser returns the authenticated user set by RequireAuth
func CurrentUser(c *gin.Context) (*model.User, bool) {
	value, exists := c.Get(GinKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*model.User)
	return user, ok
}

// CurrentUserID returns the authenticated user id set by RequireAuth
func CurrentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(GinKeyUserID)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

func abortUnauthorized(c *gin.Context, reason string) {
	logger.GetLogger().Warn("Unauthorized request",
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
		constants.MsgUnauthorized, "UNAUTHORIZED", nil,
	))
	c.Abort()
}
