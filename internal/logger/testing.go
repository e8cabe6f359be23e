package logger

import (
	"log/slog"
	"os"
)

// NewTestLogger returns a quiet logger for tests: warnings and errors only,
// written to stdout so they interleave with test output. MPVBRIDGE_TEST_LOG
// lowers the level, e.g. MPVBRIDGE_TEST_LOG=debug.
func NewTestLogger() *slog.Logger {
	return NewLogger(Config{
		Level:  ParseLevel(os.Getenv("MPVBRIDGE_TEST_LOG"), slog.LevelWarn),
		Format: "text",
		Output: os.Stdout,
	})
}
