package observe

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// LogLevel represents a process-wide logging level.
type LogLevel int

const (
	// LevelNormal emits every severity except Debug.
	LevelNormal LogLevel = iota
	// LevelDebug emits every severity.
	LevelDebug
	// LevelSilent emits nothing.
	LevelSilent
)

// ParseLogLevel parses a string log level. Unknown values map to LevelNormal.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "silent":
		return LevelSilent
	default:
		return LevelNormal
	}
}

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelSilent:
		return "silent"
	default:
		return "normal"
	}
}

// ZerologLevel maps a LogLevel onto the minimum zerolog level it lets through.
func (l LogLevel) ZerologLevel() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelSilent:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// structuredLogger writes JSON lines through zerolog.
type structuredLogger struct {
	level LogLevel
	zl    zerolog.Logger
}

// NewLogger creates a logger writing JSON lines to stderr at the given level.
func NewLogger(level string) Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a logger writing JSON lines to w.
func NewLoggerWithWriter(level string, w io.Writer) Logger {
	lvl := ParseLogLevel(level)
	zl := zerolog.New(w).
		Level(lvl.ZerologLevel()).
		With().
		Timestamp().
		Logger()
	return &structuredLogger{level: lvl, zl: zl}
}

// NewLoggerFromZerolog wraps an existing zerolog logger, capping it at level.
func NewLoggerFromZerolog(zl zerolog.Logger, level string) Logger {
	lvl := ParseLogLevel(level)
	return &structuredLogger{level: lvl, zl: zl.Level(lvl.ZerologLevel())}
}

// Level returns the logger's level.
func (l *structuredLogger) Level() LogLevel {
	return l.level
}

// WithRoute returns a logger with route context attached.
func (l *structuredLogger) WithRoute(meta RouteMeta) Logger {
	ctx := l.zl.With().
		Str("route.method", meta.Method).
		Str("route.path", meta.Path)
	if meta.Variant != "" {
		ctx = ctx.Str("route.variant", meta.Variant)
	}
	return &structuredLogger{level: l.level, zl: ctx.Logger()}
}

func (l *structuredLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, l.zl.Info(), msg, fields)
}

func (l *structuredLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, l.zl.Warn(), msg, fields)
}

func (l *structuredLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, l.zl.Error(), msg, fields)
}

func (l *structuredLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, l.zl.Debug(), msg, fields)
}

func (l *structuredLogger) log(ctx context.Context, e *zerolog.Event, msg string, fields []Field) {
	// nil when the level filters the event out
	if e == nil {
		return
	}
	if ctx != nil {
		e = e.Ctx(ctx)
	}
	for _, f := range fields {
		if isRedactedField(f.Key) {
			e = e.Str(f.Key, "[REDACTED]")
			continue
		}
		if err, ok := f.Value.(error); ok {
			e = e.AnErr(f.Key, err)
			continue
		}
		e = e.Interface(f.Key, f.Value)
	}
	e.Msg(msg)
}

// RedactedFields lists field keys whose values are replaced with
// "[REDACTED]", matched case-insensitively. Cache keys are not in the list;
// they may carry a token or cookie suffix and are only logged at debug.
var RedactedFields = []string{
	"password", "secret", "token", "auth_token", "authorization",
	"cookie", "api_key", "apiKey", "credential",
}

var redactedKeys = func() map[string]bool {
	m := make(map[string]bool, len(RedactedFields))
	for _, k := range RedactedFields {
		m[strings.ToLower(k)] = true
	}
	return m
}()

// isRedactedField returns true if the field should be redacted.
func isRedactedField(key string) bool {
	return redactedKeys[strings.ToLower(key)]
}

// LevelLogger is implemented by loggers that expose their level.
type LevelLogger interface {
	Logger
	Level() LogLevel
}

var _ LevelLogger = (*structuredLogger)(nil)

// noopLogger is a logger that does nothing.
type noopLogger struct{}

// NopLogger returns a logger that discards everything.
func NopLogger() Logger { return noopLogger{} }

func (noopLogger) Info(context.Context, string, ...Field)  {}
func (noopLogger) Warn(context.Context, string, ...Field)  {}
func (noopLogger) Error(context.Context, string, ...Field) {}
func (noopLogger) Debug(context.Context, string, ...Field) {}
func (l noopLogger) WithRoute(RouteMeta) Logger            { return l }
func (noopLogger) Level() LogLevel                         { return LevelSilent }
