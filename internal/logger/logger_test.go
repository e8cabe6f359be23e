package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{" warn ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelError},
		{"", slog.LevelError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in, slog.LevelError), tt.in)
	}
}

func TestDefaultConfigReadsEnv(t *testing.T) {
	t.Setenv("MPVBRIDGE_LOG_LEVEL", "debug")
	assert.Equal(t, slog.LevelDebug, DefaultConfig().Level)

	t.Setenv("MPVBRIDGE_LOG_LEVEL", "")
	cfg := DefaultConfig()
	assert.Equal(t, slog.LevelInfo, cfg.Level)
	assert.Equal(t, "text", cfg.Format)
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})
	log.Info("loaded", slog.String("uri", "file.mkv"))
	assert.Contains(t, buf.String(), `"uri":"file.mkv"`)

	buf.Reset()
	log = NewLogger(Config{Level: slog.LevelWarn, Output: &buf})
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestNewTestLoggerLevel(t *testing.T) {
	t.Setenv("MPVBRIDGE_TEST_LOG", "")
	l := NewTestLogger()
	assert.False(t, l.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, l.Enabled(t.Context(), slog.LevelWarn))

	t.Setenv("MPVBRIDGE_TEST_LOG", "debug")
	assert.True(t, NewTestLogger().Enabled(t.Context(), slog.LevelDebug))
}
