package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phamtung-23/auth-service/internal/constants"
	apperrors "github.com/phamtung-23/auth-service/internal/errors"
	"github.com/phamtung-23/auth-service/internal/middleware"
	"github.com/phamtung-23/auth-service/internal/service"
	ctxutil "github.com/phamtung-23/auth-service/pkg/context"
	"github.com/phamtung-23/auth-service/pkg/logger"
)

type UserHandler struct {
	auth *service.AuthService
}

func NewUserHandler(auth *service.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

// Profile returns the authenticated user's own profile
func (h *UserHandler) Profile(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "Profile")

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	profile, err := h.auth.Profile(ctx, userID)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch profile").
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Profile fetched successfully", profile))
}

// List returns a paginated page of users for administrators
func (h *UserHandler) List(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "List")

	params := constants.ParsePaginationParams(c)

	users, total, err := h.auth.ListUsers(ctx, params.Limit, params.Offset, params.Search)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list users").
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	pageTotal := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	c.JSON(http.StatusOK, constants.BuildListResponse(
		"Users fetched successfully", users, total, params.Page, pageTotal,
	))
}
