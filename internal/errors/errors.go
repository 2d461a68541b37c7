package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on the domain error code so wrapped copies compare equal
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Predefined domain errors
var (
	// User errors
	ErrUserNotFound    = NewDomainError("USER_NOT_FOUND", "user not found")
	ErrEmailExists     = NewDomainError("EMAIL_EXISTS", "email already registered")
	ErrAlreadyVerified = NewDomainError("ALREADY_VERIFIED", "email is already verified")
	ErrAccountDisabled = NewDomainError("ACCOUNT_DISABLED", "account is disabled")

	// Credential errors
	ErrInvalidCredentials = NewDomainError("INVALID_CREDENTIALS", "invalid credentials")
	ErrIncorrectPassword  = NewDomainError("INCORRECT_PASSWORD", "current password is incorrect")

	// OTP errors
	ErrInvalidOrExpiredOtp = NewDomainError("INVALID_OR_EXPIRED_OTP", "invalid or expired verification code")

	// Token errors
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "unauthorized")
	ErrInvalidRefreshToken = NewDomainError("INVALID_REFRESH_TOKEN", "invalid refresh token")
	ErrTokenNotFound       = NewDomainError("TOKEN_NOT_FOUND", "refresh token not found")
	ErrTokenRevoked        = NewDomainError("TOKEN_REVOKED", "refresh token has been revoked")
	ErrTokenExpired        = NewDomainError("TOKEN_EXPIRED", "refresh token has expired")

	// Validation errors
	ErrInvalidInput = NewDomainError("INVALID_INPUT", "invalid input")

	// System errors
	ErrInternal     = NewDomainError("INTERNAL_ERROR", "internal server error")
	ErrMailDelivery = NewDomainError("MAIL_DELIVERY_FAILED", "failed to deliver verification code")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	return http.StatusInternalServerError
}

// domainErrorToHTTPStatus maps specific domain errors to HTTP status codes
func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 400 Bad Request
	case "INVALID_INPUT", "INVALID_OR_EXPIRED_OTP", "ALREADY_VERIFIED":
		return http.StatusBadRequest

	// 401 Unauthorized
	case "UNAUTHORIZED", "INVALID_CREDENTIALS", "INCORRECT_PASSWORD",
		"INVALID_REFRESH_TOKEN", "TOKEN_NOT_FOUND", "TOKEN_REVOKED", "TOKEN_EXPIRED":
		return http.StatusUnauthorized

	// 403 Forbidden
	case "ACCOUNT_DISABLED":
		return http.StatusForbidden

	// 404 Not Found
	case "USER_NOT_FOUND":
		return http.StatusNotFound

	// 409 Conflict
	case "EMAIL_EXISTS":
		return http.StatusConflict

	// 502 Bad Gateway
	case "MAIL_DELIVERY_FAILED":
		return http.StatusBadGateway

	// 500 Internal Server Error (default)
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts the client-facing error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}

// GetErrorCode safely extracts the domain error code
func GetErrorCode(err error) string {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code
	}
	return "INTERNAL_ERROR"
}
