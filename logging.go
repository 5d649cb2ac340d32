package flagkit

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slog"
)

// Logger is the narrow interface the evaluation engine and repository
// log through. Evaluation never returns an error (spec §7), so a
// Logger is the only way to observe skipped rules, filtered
// experiments, fetch failures and subscriber panics. Host
// applications can substitute their own sink; the default backs onto
// zerolog, and the test suite drives an x/exp/slog-based logger to
// assert on emitted records without depending on zerolog's wire
// format.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// zerologLogger adapts a zerolog.Logger to the Logger interface.
type zerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog.Logger.
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologLogger{l}
}

// NewDefaultLogger returns the zerolog-backed logger used when no
// Logger is supplied: human-readable console output on stderr.
func NewDefaultLogger() Logger {
	return &zerologLogger{zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()}
}

func (z *zerologLogger) Debug(msg string, kv ...any) { z.event(z.l.Debug(), kv).Msg(msg) }
func (z *zerologLogger) Info(msg string, kv ...any)  { z.event(z.l.Info(), kv).Msg(msg) }
func (z *zerologLogger) Warn(msg string, kv ...any)  { z.event(z.l.Warn(), kv).Msg(msg) }
func (z *zerologLogger) Error(msg string, kv ...any) { z.event(z.l.Error(), kv).Msg(msg) }

func (z *zerologLogger) event(e *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}

// noopLogger discards everything; used as the zero-value default so
// internal call sites never need a nil check.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// slogLogger adapts a golang.org/x/exp/slog.Logger to the Logger
// interface. Useful for tests that want to assert on emitted records
// through a slog.Handler without depending on zerolog's wire format.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps an existing slog.Logger.
func NewSlogLogger(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}

func (s *slogLogger) Debug(msg string, kv ...any) { s.l.Log(context.Background(), slog.LevelDebug, msg, kv...) }
func (s *slogLogger) Info(msg string, kv ...any)  { s.l.Log(context.Background(), slog.LevelInfo, msg, kv...) }
func (s *slogLogger) Warn(msg string, kv ...any)  { s.l.Log(context.Background(), slog.LevelWarn, msg, kv...) }
func (s *slogLogger) Error(msg string, kv ...any) { s.l.Log(context.Background(), slog.LevelError, msg, kv...) }
