package constants

// HTTP Header Names
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderUserAgent     = "User-Agent"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"
)

// Common HTTP Error Messages
const (
	MsgUnauthorized  = "Unauthorized access"
	MsgForbidden     = "Access forbidden"
	MsgNotFound      = "Resource not found"
	MsgBadRequest    = "Invalid request"
	MsgInternalError = "Internal server error"
	MsgConflict      = "Resource already exists"
	MsgTooManyReqs   = "Too many requests"
)

// Auth Flow Messages
const (
	MsgRegistered        = "Registration successful, a verification code has been sent to your email"
	MsgEmailVerified     = "Email verified successfully"
	MsgVerificationSent  = "A new verification code has been sent to your email"
	MsgOtpSent           = "If an account exists for this email, a login code has been sent"
	MsgForgotPassword    = "If an account exists for this email, a password reset code has been sent"
	MsgPasswordReset     = "Password reset successfully"
	MsgPasswordChanged   = "Password changed successfully"
	MsgLoggedOut         = "Logout successful"
	MsgLoggedOutAll      = "All sessions revoked successfully"
	MsgAuthSuccess       = "Login successful"
	MsgAuthFailed        = "Authentication failed"
	MsgTokenRefreshed    = "Token refreshed successfully"
	MsgTokenRefreshFail  = "Token refresh failed"
	MsgValidationFailed  = "Validation failed"
	MsgInvalidJSONFormat = "Invalid request format"
)
