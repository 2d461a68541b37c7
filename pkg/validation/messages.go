package validation

import (
	"fmt"
	"strings"
)

// CustomMessage returns field-specific validation messages that override
// the defaults. Returns nil when the field has no overrides.
func CustomMessage(field string) map[string]string {
	var customValidationMessages = map[string]map[string]string{
		"Email": {
			"required": "email is required",
			"email":    "email must be a valid email address",
		},
		"Password": {
			"required":       "password is required",
			"min":            "password must be at least 8 characters",
			"strongpassword": "password must contain an uppercase letter, a lowercase letter, a digit and a special character",
		},
		"NewPassword": {
			"required":       "new password is required",
			"min":            "new password must be at least 8 characters",
			"strongpassword": "new password must contain an uppercase letter, a lowercase letter, a digit and a special character",
		},
		"CurrentPassword": {
			"required": "current password is required",
		},
		"FirstName": {
			"required": "first name is required",
		},
		"LastName": {
			"required": "last name is required",
		},
		"OtpCode": {
			"required": "otp code is required",
			"len":      "otp code must be 6 digits",
			"numeric":  "otp code must contain only digits",
		},
		"RefreshToken": {
			"required": "refresh token is required",
		},
	}
	return customValidationMessages[field]
}

// DefaultMessage returns a generic message for a validation tag
func DefaultMessage(field, tag string) string {
	field = strings.ToLower(field)

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "numeric":
		return fmt.Sprintf("%s must contain only digits", field)
	case "min":
		return fmt.Sprintf("%s is below the minimum length or value", field)
	case "max":
		return fmt.Sprintf("%s exceeds the maximum length or value", field)
	case "len":
		return fmt.Sprintf("%s does not have the required length", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of the allowed values", field)
	case "eqfield":
		return fmt.Sprintf("%s does not match the related field", field)
	case "strongpassword":
		return fmt.Sprintf("%s must contain an uppercase letter, a lowercase letter, a digit and a special character", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// MessageFor resolves the message for a field/tag pair, preferring
// field-specific overrides over the defaults.
func MessageFor(field, tag string) string {
	if custom := CustomMessage(field); custom != nil {
		if msg, ok := custom[tag]; ok {
			return msg
		}
	}
	return DefaultMessage(field, tag)
}
