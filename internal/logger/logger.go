package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalMu     sync.RWMutex
	globalLogger *zap.Logger
	globalLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

//nolint:gochecknoinits // The global logger must exist before any package logs.
func init() {
	globalLogger = New(globalLevel)
}

// New creates a console logger writing to stderr at the given level.
// A nil level falls back to the package-wide atomic level.
func New(level zapcore.LevelEnabler) *zap.Logger {
	if level == nil {
		level = globalLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)

	return zap.New(core)
}

// Logger returns the current global logger.
func Logger() *zap.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()

	return globalLogger
}

// SetLogger replaces the global logger.
func SetLogger(l *zap.Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalLogger = l
}

// Level returns the current global log level.
func Level() zapcore.Level {
	return globalLevel.Level()
}

// SetLevel changes the global log level at runtime.
func SetLevel(level zapcore.Level) {
	globalLevel.SetLevel(level)
}

// IsDebugLevel reports whether debug logging is enabled.
func IsDebugLevel() bool {
	return Level() <= zapcore.DebugLevel
}

// ParseLogLevel converts a textual level into a zapcore.Level.
// The second return value is false when the input is not a known level,
// in which case the info level is returned.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	case "dpanic":
		return zapcore.DPanicLevel, true
	case "panic":
		return zapcore.PanicLevel, true
	case "fatal":
		return zapcore.FatalLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// Debug logs a message at the debug level.
func Debug(ctx context.Context, msg string) {
	fromContext(ctx).Debug(msg)
}

// Debugf logs a formatted message at the debug level.
func Debugf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Debug(fmt.Sprintf(format, args...))
}

// DebugKV logs a message with key-value pairs at the debug level.
func DebugKV(ctx context.Context, msg string, kv ...any) {
	fromContext(ctx).Sugar().Debugw(msg, kv...)
}

// Info logs a message at the info level.
func Info(ctx context.Context, msg string) {
	fromContext(ctx).Info(msg)
}

// Infof logs a formatted message at the info level.
func Infof(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Info(fmt.Sprintf(format, args...))
}

// InfoKV logs a message with key-value pairs at the info level.
func InfoKV(ctx context.Context, msg string, kv ...any) {
	fromContext(ctx).Sugar().Infow(msg, kv...)
}

// Warn logs a message at the warn level.
func Warn(ctx context.Context, msg string) {
	fromContext(ctx).Warn(msg)
}

// Warnf logs a formatted message at the warn level.
func Warnf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Warn(fmt.Sprintf(format, args...))
}

// WarnKV logs a message with key-value pairs at the warn level.
func WarnKV(ctx context.Context, msg string, kv ...any) {
	fromContext(ctx).Sugar().Warnw(msg, kv...)
}

// Error logs a message at the error level.
func Error(ctx context.Context, msg string) {
	fromContext(ctx).Error(msg)
}

// Errorf logs a formatted message at the error level.
func Errorf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Error(fmt.Sprintf(format, args...))
}

// ErrorKV logs a message with key-value pairs at the error level.
func ErrorKV(ctx context.Context, msg string, kv ...any) {
	fromContext(ctx).Sugar().Errorw(msg, kv...)
}

// Fatalf logs a formatted message at the fatal level and exits the process.
func Fatalf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Fatal(fmt.Sprintf(format, args...))
}

type loggerContextKey struct{}

// ToContext stores a logger in the context, overriding the global one
// for calls made with that context.
func ToContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

func fromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerContextKey{}).(*zap.Logger); ok {
			return l
		}
	}

	return Logger()
}
