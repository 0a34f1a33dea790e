package testutil

import (
	"io"
	"log/slog"

	"github.com/dtroode/usergraph/internal/logger"
)

func MakeNoopLogger() *logger.Logger {
	return &logger.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))}
}

// NewJSONLogger writes debug-level JSON records to w.
func NewJSONLogger(w io.Writer) *logger.Logger {
	return &logger.Logger{Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
}
