package log

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	global = newLogger()
)

func newLogger() *zap.Logger {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.TimeKey = "time"
	cfg.MessageKey = "message"
	cfg.LevelKey = "severity"
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}

// SetLevel changes the level of the global logger (and of all the loggers derived from it)
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

// Logger returns the logger stored in the context or the global logger
func Logger(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
			return l
		}
	}
	return global
}

// WithLogger returns a context carrying the given logger
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// With returns a context whose logger carries the key/value pair
func With(ctx context.Context, key string, value interface{}) context.Context {
	return WithLogger(ctx, Logger(ctx).With(zap.Any(key, value)))
}

// Fatal logs the message with the global logger and exits
func Fatal(msg string, fields ...zap.Field) {
	global.Fatal(msg, fields...)
}
