package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/phamtung-23/auth-service/internal/constants"
	"github.com/phamtung-23/auth-service/pkg/validation"
)

// RegisterCustomValidators installs custom validation tags on gin's binding
// engine. Must run once before the router starts serving.
func RegisterCustomValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}

	return v.RegisterValidation("strongpassword", strongPassword)
}

// strongPassword requires at least one uppercase letter, one lowercase
// letter, one digit and one non-alphanumeric character.
func strongPassword(fl validator.FieldLevel) bool {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSpecial
}

// BindJSON binds the request body into obj and writes the standard
// validation error response on failure. Returns false when the request was
// rejected.
func BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			details := make([]map[string]string, 0, len(validationErrs))
			for _, fieldErr := range validationErrs {
				details = append(details, map[string]string{
					"field":   fieldErr.Field(),
					"message": validation.MessageFor(fieldErr.Field(), fieldErr.Tag()),
				})
			}
			c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
				constants.MsgValidationFailed, "INVALID_INPUT", details,
			))
			return false
		}

		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			constants.MsgInvalidJSONFormat, "INVALID_INPUT", nil,
		))
		return false
	}

	return true
}
