// Package logger provides structured logging built on zerolog.
package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/flowengine/engine/internal/config"
)

// Logger wraps zerolog.Logger with a few convenience helpers used across
// the engine (child loggers scoped to a workflow or execution id).
type Logger struct {
	zl zerolog.Logger
}

// New creates a new logger based on the configuration.
func New(cfg config.LoggingConfig) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var writer = os.Stdout
	zl := zerolog.New(writer).Level(level).With().Timestamp().Logger()

	if cfg.Format == "console" {
		zl = zl.Output(zerolog.ConsoleWriter{Out: writer})
	}

	return &Logger{zl: zl}
}

// Raw exposes the underlying zerolog.Logger for callers that want direct
// field-builder access (e.g. bundebug hooks).
func (l *Logger) Raw() zerolog.Logger {
	return l.zl
}

// With returns a child logger carrying the given key/value, e.g.
// logger.With("workflow_id", id).
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// WithContext attaches the logger to a context so downstream code can
// retrieve it via FromContext.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.zl.WithContext(ctx)
}

// FromContext extracts a Logger previously attached via WithContext,
// falling back to the default logger.
func FromContext(ctx context.Context) *Logger {
	zl := zerolog.Ctx(ctx)
	if zl == nil || zl.GetLevel() == zerolog.Disabled && zl == zerolog.DefaultContextLogger {
		return Default()
	}
	return &Logger{zl: *zl}
}

func (l *Logger) Debug(msg string, kv ...any) { l.event(l.zl.Debug(), msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.event(l.zl.Info(), msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.event(l.zl.Warn(), msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.event(l.zl.Error(), msg, kv...) }

// event applies loosely-typed key/value pairs to a zerolog.Event, matching
// the slog-style call sites the rest of the codebase already uses
// (logger.Info("message", "key", value, "key2", value2)).
func (l *Logger) event(ev *zerolog.Event, msg string, kv ...any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}

var defaultLogger *Logger

func init() {
	defaultLogger = New(config.LoggingConfig{Level: "info", Format: "json"})
}

// Default returns the default logger.
func Default() *Logger { return defaultLogger }

// SetDefault sets the default logger.
func SetDefault(l *Logger) { defaultLogger = l }

func Debug(msg string, kv ...any) { defaultLogger.Debug(msg, kv...) }
func Info(msg string, kv ...any)  { defaultLogger.Info(msg, kv...) }
func Warn(msg string, kv ...any)  { defaultLogger.Warn(msg, kv...) }
func Error(msg string, kv ...any) { defaultLogger.Error(msg, kv...) }
