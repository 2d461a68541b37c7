package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phamtung-23/auth-service/internal/constants"
	"github.com/phamtung-23/auth-service/internal/dto"
	apperrors "github.com/phamtung-23/auth-service/internal/errors"
	"github.com/phamtung-23/auth-service/internal/middleware"
	"github.com/phamtung-23/auth-service/internal/service"
	ctxutil "github.com/phamtung-23/auth-service/pkg/context"
	"github.com/phamtung-23/auth-service/pkg/logger"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func deviceMeta(c *gin.Context) service.DeviceMeta {
	return service.DeviceMeta{
		UserAgent: c.GetHeader(constants.HeaderUserAgent),
		IPAddress: c.ClientIP(),
	}
}

// respondError writes the standard error envelope for a domain error
func respondError(c *gin.Context, err error) {
	c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse(
		apperrors.GetErrorMessage(err),
		apperrors.GetErrorCode(err),
		nil,
	))
}

func (h *AuthHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "Register")

	var req dto.RegisterRequest
	if !middleware.BindJSON(c, &req) {
		return
	}

	user, err := h.auth.Register(ctx, &req)
	if err != nil {
		logger.WarnWithContext(ctx, "Registration rejected").
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, constants.BuildSuccessResponse(constants.MsgRegistered, user))
}

func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "Login")

	var req dto.LoginRequest
	if !middleware.BindJSON(c, &req) {
		return
	}

	session, err := h.auth.Login(ctx, &req, deviceMeta(c))
	if err != nil {
		logger.WarnWithContext(ctx, "Login rejected").
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgAuthSuccess, session))
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "VerifyEmail")

	var req dto.VerifyEmailRequest
	if !middleware.BindJSON(c, &req) {
		return
	}

	if err := h.auth.VerifyEmail(ctx, req.Email, req.OtpCode); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgEmailVerified, nil))
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "ResendVerification")

	var req dto.ResendVerificationRequest
	if !middleware.BindJSON(c, &req) {
		return
	}

	if err := h.auth.ResendVerification(ctx, req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgVerificationSent, nil))
}

func (h *AuthHandler) SendOtp(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "SendOtp")

	var req dto.SendOtpRequest
	if !middleware.BindJSON(c, &req) {
		return
	}

	if err := h.auth.SendOtp(ctx, req.Email); err != nil {
		respondError(c, err)
		return
	}

	// Same response whether or not the account exists
	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgOtpSent, nil))
}

func (h *AuthHandler) VerifyOtp(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "VerifyOtp")

	var req dto.VerifyOtpRequest
	if !middleware.BindJSON(c, &req) {
		return
	}

	session, err := h.auth.VerifyOtp(ctx, req.Email, req.OtpCode, deviceMeta(c))
	if err != nil {
		logger.WarnWithContext(ctx, "OTP login rejected").
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgAuthSuccess, session))
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "ForgotPassword")

	var req dto.ForgotPasswordRequest
	if !middleware.BindJSON(c, &req) {
		return
	}

	if err := h.auth.ForgotPassword(ctx, req.Email); err != nil {
		respondError(c, err)
		return
	}

	// Same response whether or not the account exists
	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgForgotPassword, nil))
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "ResetPassword")

	var req dto.ResetPasswordRequest
	if !middleware.BindJSON(c, &req) {
		return
	}

	if err := h.auth.ResetPassword(ctx, req.Email, req.OtpCode, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgPasswordReset, nil))
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "ChangePassword")

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	var req dto.ChangePasswordRequest
	if !middleware.BindJSON(c, &req) {
		return
	}

	if err := h.auth.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgPasswordChanged, nil))
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "Refresh")

	var req dto.RefreshTokenRequest
	if !middleware.BindJSON(c, &req) {
		return
	}

	session, err := h.auth.Refresh(ctx, req.RefreshToken, deviceMeta(c))
	if err != nil {
		logger.WarnWithContext(ctx, "Token refresh rejected").
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgTokenRefreshed, session))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "Logout")

	var req dto.LogoutRequest
	if !middleware.BindJSON(c, &req) {
		return
	}

	if err := h.auth.Logout(ctx, req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgLoggedOut, nil))
}

func (h *AuthHandler) LogoutAll(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "LogoutAll")

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	revoked, err := h.auth.LogoutAll(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgLoggedOutAll, gin.H{
		"revoked_sessions": revoked,
	}))
}
