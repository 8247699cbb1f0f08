package logger

import (
	"io"
	"log/slog"
)

// NewTest returns a logger that discards everything, for use in tests.
func NewTest() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
