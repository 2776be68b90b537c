package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a structured logger tagged with the service name.
// format is "json" or "text"; unknown levels fall back to info.
func New(serviceName, level, format string) *slog.Logger {
	return newLogger(os.Stderr, serviceName, level, format)
}

func newLogger(w io.Writer, serviceName, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With(slog.String("service", serviceName))
}

// ParseLevel maps debug/info/warn/error to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
