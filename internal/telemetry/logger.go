package telemetry

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger returns the JSON logger every binary writes to stdout.
func NewLogger(service string, level slog.Level) *slog.Logger {
	return newLogger(os.Stdout, service, level)
}

func newLogger(w io.Writer, service string, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})).
		With("service", service)
}
