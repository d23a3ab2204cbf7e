// Package log wraps slog with the handful of conventions the journal CLI
// relies on: stderr output, coded error attributes and credential redaction.
package log

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/felixgeelhaar/journal/internal/errors"
)

// Config controls a Logger.
type Config struct {
	Level  Level
	Format Format
	// Output defaults to stderr so stdout stays reserved for command output.
	Output io.Writer
}

// Logger is a structured logger.
type Logger struct {
	slog *slog.Logger
}

// New builds a Logger from cfg.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:       cfg.Level.slogLevel(),
		AddSource:   cfg.Level == LevelDebug,
		ReplaceAttr: redact,
	}

	var handler slog.Handler
	if cfg.Format == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return &Logger{slog: slog.New(handler)}
}

// Discard drops everything.
func Discard() *Logger {
	return New(Config{Level: LevelError, Output: io.Discard})
}

// secretKeys are attribute keys whose values never reach the log.
var secretKeys = map[string]bool{
	"token":         true,
	"authorization": true,
	"password":      true,
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "[redacted]")
	}
	return a
}

// With returns a Logger that adds args to every entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

// WithError attaches err. Coded errors contribute error_code, suggestions
// and cause attributes.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}

	var jErr *errors.JournalError
	if !stderrors.As(err, &jErr) {
		return l.With("error", err.Error())
	}
	args := []any{"error", jErr.Message, "error_code", string(jErr.Code)}
	if len(jErr.Suggestions) > 0 {
		args = append(args, "suggestions", jErr.Suggestions)
	}
	if jErr.Cause != nil {
		args = append(args, "cause", jErr.Cause.Error())
	}
	return l.With(args...)
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slog.DebugContext(ctx, msg, args...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slog.WarnContext(ctx, msg, args...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slog.ErrorContext(ctx, msg, args...)
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// SetDefaultLogger replaces the logger returned by DefaultLogger.
func SetDefaultLogger(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// DefaultLogger returns the process-wide logger. Until one is set it is a
// warn-level text logger on stderr.
func DefaultLogger() *Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(Config{Level: LevelWarn})
	}
	return defaultLogger
}
