package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ENV", "")
	t.Setenv("DEFAULT_FILTER_LIMIT", "")
	t.Setenv("MAX_COLUMN_SAMPLES", "")

	cfg := LoadFromEnv()

	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.False(t, cfg.IsProduction())
	assert.EqualValues(t, 100, cfg.DefaultFilterLimit)
	assert.Equal(t, 5, cfg.MaxSamples)
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENV", "production")
	t.Setenv("DEFAULT_FILTER_LIMIT", "250")
	t.Setenv("MAX_COLUMN_SAMPLES", "10")

	cfg := LoadFromEnv()

	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.True(t, cfg.IsProduction())
	assert.EqualValues(t, 250, cfg.DefaultFilterLimit)
	assert.Equal(t, 10, cfg.MaxSamples)
}

func TestLoadFromEnv_InvalidNumbersKeepDefaults(t *testing.T) {
	t.Setenv("DEFAULT_FILTER_LIMIT", "not-a-number")
	t.Setenv("MAX_COLUMN_SAMPLES", "-3")

	cfg := LoadFromEnv()

	assert.EqualValues(t, 100, cfg.DefaultFilterLimit)
	assert.Equal(t, 5, cfg.MaxSamples)
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"WARN", slog.LevelWarn},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tc := range tests {
		t.Run("level_"+tc.level, func(t *testing.T) {
			cfg := &Config{LogLevel: tc.level}
			assert.Equal(t, tc.want, cfg.SlogLevel())
		})
	}
}
