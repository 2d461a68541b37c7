package logger

import (
	"os"
	"path/filepath"

	"github.com/phamtung-23/auth-service/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger
)

// InitLogger initializes Zap logger with configuration
func InitLogger(cfg *config.Config) error {
	var err error

	// Create logs directory if it doesn't exist
	logsPath := getEnv("LOGS_PATH", "./logs")
	if err = os.MkdirAll(logsPath, 0755); err != nil {
		return err
	}

	// Configure log level based on environment
	var zapLevel zapcore.Level
	switch cfg.App.Environment {
	case "production":
		zapLevel = zapcore.InfoLevel
	default:
		zapLevel = zapcore.DebugLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	infoLogPath := filepath.Join(logsPath, "info.log")
	errorLogPath := filepath.Join(logsPath, "error.log")

	infoFile, err := os.OpenFile(infoLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	errorFile, err := os.OpenFile(errorLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		infoFile.Close()
		return err
	}

	infoWriter := zapcore.AddSync(infoFile)
	errorWriter := zapcore.AddSync(errorFile)

	infoCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(infoWriter, zapcore.AddSync(os.Stdout)),
		zapLevel,
	)

	errorCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(errorWriter, zapcore.AddSync(os.Stderr)),
		zapcore.ErrorLevel,
	)

	core := zapcore.NewTee(infoCore, errorCore)

	Logger = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	Sugar = Logger.Sugar()

	return nil
}

// GetLogger returns the structured logger
func GetLogger() *zap.Logger {
	if Logger == nil {
		Logger = zap.NewNop()
		Sugar = Logger.Sugar()
	}
	return Logger
}

// GetSugarLogger returns the sugared logger
func GetSugarLogger() *zap.SugaredLogger {
	GetLogger()
	return Sugar
}

// Sync syncs all logs (call this before application exits)
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// LogRequest logs HTTP request information
func LogRequest(method, path string, statusCode int, duration int64, clientIP string, userAgent string) {
	GetLogger().Info("HTTP Request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", statusCode),
		zap.Int64("duration_ms", duration),
		zap.String("client_ip", clientIP),
		zap.String("user_agent", userAgent),
	)
}

// LogPanic logs panic and recovers
func LogPanic(recovered interface{}) {
	GetLogger().Error("Panic recovered",
		zap.Any("panic", recovered),
		zap.Stack("stack"),
	)
}

// LogAuth logs authentication events
func LogAuth(userID, action string, success bool, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.String("user_id", userID),
		zap.String("action", action),
		zap.Bool("success", success),
	}, fields...)

	if success {
		GetLogger().Info("Authentication success", allFields...)
	} else {
		GetLogger().Warn("Authentication failure", allFields...)
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
