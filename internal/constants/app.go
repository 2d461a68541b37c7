package constants

// Application Information
const (
	AppName    = "Auth Service"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "8080"
	DefaultEnvironment = EnvDevelopment
)

// Cache Key Prefixes
const (
	CacheKeyPrefix    = "auth:"
	CacheKeyUser      = CacheKeyPrefix + "user:"
	CacheKeyRateLimit = CacheKeyPrefix + "ratelimit:"
)

// Log Levels
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelFatal = "fatal"
)
