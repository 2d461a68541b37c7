package logger

import (
	"context"
	"time"

	ctxutil "github.com/phamtung-23/auth-service/pkg/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ContextLogBuilder builds a log entry enriched with request-scoped fields
// extracted from the context (request id, client ip, module, function).
type ContextLogBuilder struct {
	logger    *zap.Logger
	ctx       context.Context
	level     zapcore.Level
	fields    []zap.Field
	message   string
	shouldLog bool
}

// WithContext creates a log builder bound to the given context
func WithContext(ctx context.Context) *ContextLogBuilder {
	return &ContextLogBuilder{
		logger:    GetLogger(),
		ctx:       ctx,
		level:     zapcore.InfoLevel,
		fields:    make([]zap.Field, 0, 12),
		shouldLog: true,
	}
}

// extractContextFields pulls common tracking fields from the context
func (clb *ContextLogBuilder) extractContextFields() {
	if clb.ctx == nil {
		return
	}

	if requestID := ctxutil.GetRequestID(clb.ctx); requestID != "" {
		clb.fields = append(clb.fields, zap.String("request_id", requestID))
	}

	if clientIP := ctxutil.GetClientIP(clb.ctx); clientIP != "" {
		clb.fields = append(clb.fields, zap.String("client_ip", clientIP))
	}

	if userAgent := ctxutil.GetUserAgent(clb.ctx); userAgent != "" {
		clb.fields = append(clb.fields, zap.String("user_agent", userAgent))
	}

	if userID, ok := ctxutil.GetUserID(clb.ctx); ok {
		clb.fields = append(clb.fields, zap.Uint("user_id", userID))
	}

	if module := ctxutil.GetModule(clb.ctx); module != "" {
		clb.fields = append(clb.fields, zap.String("module", module))
	}

	if function := ctxutil.GetFunction(clb.ctx); function != "" {
		clb.fields = append(clb.fields, zap.String("function", function))
	}
}

func (clb *ContextLogBuilder) at(level zapcore.Level, message string) *ContextLogBuilder {
	if !clb.logger.Core().Enabled(level) {
		clb.shouldLog = false
		return clb
	}
	clb.level = level
	clb.message = message
	clb.extractContextFields()
	return clb
}

// Level methods
func (clb *ContextLogBuilder) Info(message string) *ContextLogBuilder {
	return clb.at(zapcore.InfoLevel, message)
}

func (clb *ContextLogBuilder) Warn(message string) *ContextLogBuilder {
	return clb.at(zapcore.WarnLevel, message)
}

func (clb *ContextLogBuilder) Error(message string) *ContextLogBuilder {
	return clb.at(zapcore.ErrorLevel, message)
}

func (clb *ContextLogBuilder) Debug(message string) *ContextLogBuilder {
	return clb.at(zapcore.DebugLevel, message)
}

// Field methods
func (clb *ContextLogBuilder) String(key, value string) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.String(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Int(key string, value int) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Int(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Int64(key string, value int64) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Int64(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Uint(key string, value uint) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Uint(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Bool(key string, value bool) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Bool(key, value))
	}
	return clb
}

func (clb *ContextLogBuilder) Duration(value time.Duration) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Duration("duration", value))
	}
	return clb
}

func (clb *ContextLogBuilder) Err(err error) *ContextLogBuilder {
	if clb.shouldLog && err != nil {
		clb.fields = append(clb.fields, zap.Error(err))
	}
	return clb
}

func (clb *ContextLogBuilder) Any(key string, value interface{}) *ContextLogBuilder {
	if clb.shouldLog {
		clb.fields = append(clb.fields, zap.Any(key, value))
	}
	return clb
}

// Log writes the entry at the selected level
func (clb *ContextLogBuilder) Log() {
	if !clb.shouldLog {
		return
	}

	switch clb.level {
	case zapcore.DebugLevel:
		clb.logger.Debug(clb.message, clb.fields...)
	case zapcore.InfoLevel:
		clb.logger.Info(clb.message, clb.fields...)
	case zapcore.WarnLevel:
		clb.logger.Warn(clb.message, clb.fields...)
	case zapcore.ErrorLevel:
		clb.logger.Error(clb.message, clb.fields...)
	}
}

// Global context logger helper functions
func InfoWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return WithContext(ctx).Info(message)
}

func WarnWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return WithContext(ctx).Warn(message)
}

func ErrorWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return WithContext(ctx).Error(message)
}

func DebugWithContext(ctx context.Context, message string) *ContextLogBuilder {
	return WithContext(ctx).Debug(message)
}
