package logger_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"feedsync/internal/logger"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "https://example.com/a", "https://example.com/a"},
		{"lf", "line1\nline2", "line1 line2"},
		{"crlf keeps two spaces", "a\r\nb", "a  b"},
		{"tab and nul removed", "a\tb\x00c", "abc"},
		{"del removed", "x\x7fy", "xy"},
		{"escape removed", "\x1b[31mred", "[31mred"},
		{"unicode kept", "記事\nです", "記事 です"},
		{"empty", "", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, logger.Sanitize(c.in))
		})
	}
}

func TestSafeStringPreventsForgedLines(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "test", "info")

	log.Info("fetched", logger.SafeString("url", "https://x/\nlevel=ERROR msg=forged"))

	require.Equal(t, 1, strings.Count(buf.String(), "\n"))
	require.Contains(t, buf.String(), "service=test")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, logger.ParseLevel(" warn "))
	require.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, logger.ParseLevel("verbose"))
}
