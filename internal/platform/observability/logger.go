package observability

import (
	"context"
	"log"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lprior-repo/sitekit/internal/platform/requestctx"
)

const defaultLogLevel = "info"

// LoggerOptions tunes NewLogger.
type LoggerOptions struct {
	// Level is a zap level name; invalid or empty values fall back to info.
	Level string
	// Development switches to a human-readable console encoder.
	Development bool
}

// NewLogger constructs a zap logger emitting structured JSON with Cloud Logging keys.
func NewLogger(opts LoggerOptions) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(opts.Level)))); err != nil || strings.TrimSpace(opts.Level) == "" {
		_ = level.UnmarshalText([]byte(defaultLogLevel))
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey:    "message",
		TimeKey:       "timestamp",
		LevelKey:      "severity",
		EncodeTime:    zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel:   severityEncoder,
		CallerKey:     "caller",
		EncodeCaller:  zapcore.ShortCallerEncoder,
		StacktraceKey: "stacktrace",
	}
	encoding := "json"
	if opts.Development {
		encoding = "console"
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	cfg := zap.Config{
		Level:             level,
		Development:       opts.Development,
		Encoding:          encoding,
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	return cfg.Build()
}

func severityEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(strings.ToUpper(level.String()))
}

// WithLogger injects the logger into the provided context.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return requestctx.WithLogger(ctx, logger)
}

// FromContext retrieves the logger from context, defaulting to a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	return requestctx.Logger(ctx)
}

// StdLogger adapts zap for APIs that take a *log.Logger, such as http.Server.ErrorLog.
func StdLogger(logger *zap.Logger, level zapcore.Level) *log.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	std, err := zap.NewStdLogAt(logger, level)
	if err != nil {
		return zap.NewStdLog(logger)
	}
	return std
}

// WithRequestFields augments the logger with standard request-scoped fields.
func WithRequestFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger.With(fields...)
}
