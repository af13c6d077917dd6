// Package logger builds the structured loggers used across feedsync and
// neutralizes untrusted values before they reach a log sink.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New constructs a text logger on stderr with the desired log level.
func New(service, level string) *slog.Logger {
	return NewWithWriter(os.Stderr, service, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, service, level string) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(h).With("service", service)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Sanitize replaces every CR and LF with a space and removes the remaining
// C0 control characters and DEL, so a value can never forge a log line.
func Sanitize(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r == '\r' || r == '\n':
			b.WriteByte(' ')
		case r < 0x20 || r == 0x7f:
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SafeString is slog.String for values that came from outside the process.
func SafeString(key, value string) slog.Attr {
	return slog.String(key, Sanitize(value))
}

// SafeErr logs an error's text after sanitizing it.
func SafeErr(err error) slog.Attr {
	if err == nil {
		return slog.String("err", "<nil>")
	}
	return slog.String("err", Sanitize(err.Error()))
}
