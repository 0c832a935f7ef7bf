// Package logger provides a structured, module-aware logging system built on log/slog.
//
// Components receive a Logger and scope it with Module:
//
//	log := logger.Global().Module("coda")
//	log.Info("rows fetched",
//	    logger.String("table", table),
//	    logger.Int("rows", len(rows)))
//
// Console output is human-readable text; the optional file output is JSON and is
// rotated by lumberjack.
package logger

import (
	"context"
	"time"
)

// LogLevel is a level name as written in the config.
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Field is one structured key/value pair.
type Field struct {
	Key   string
	Value any
}

// Logger is what components depend on; tests pass NewSlogLogger instead of the global.
type Logger interface {
	// Module scopes the logger; nested modules join with a dot, e.g. "api.access".
	Module(name string) Logger

	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	With(fields ...Field) Logger
	WithContext(ctx context.Context) Logger

	Log(level LogLevel, msg string, fields ...Field)
	Flush() error
}

// Field constructors. Values are passed to slog unchanged except for errors, which
// are logged by message so that a nil error stays readable.

func String(key, value string) Field { return Field{key, value} }
func Int(key string, value int) Field { return Field{key, value} }
func Int64(key string, value int64) Field { return Field{key, value} }
func Float64(key string, value float64) Field { return Field{key, value} }
func Bool(key string, value bool) Field { return Field{key, value} }
func Duration(key string, value time.Duration) Field { return Field{key, value} }
func Time(key string, value time.Time) Field { return Field{key, value} }
func Any(key string, value any) Field { return Field{key, value} }

// Error always uses the key "error".
func Error(err error) Field {
	if err == nil {
		return Field{errorKey, nil}
	}
	return Field{errorKey, err.Error()}
}

const (
	errorKey   = "error"
	moduleKey  = "module"
	traceIDKey = "trace_id"
)
