package constants

// Field Length Limits
const (
	MinPasswordLength = 8
	MaxPasswordLength = 100
	MinNameLength     = 2
	MaxNameLength     = 50
	MaxEmailLength    = 255
)

// OTP Settings
const (
	OtpCodeLength = 6
)

// Validation Patterns
const (
	EmailPattern = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
)
