package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory://", cfg.CacheURL)
	assert.Equal(t, "http://localhost:8000", cfg.CoreServiceURL)
	assert.Equal(t, "http://localhost:8001", cfg.MLServiceURL)
	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, 30*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CACHE_URL", "postgres://cache:5432/bff?sslmode=disable")
	t.Setenv("CORE_SERVICE_URL", "http://core:8000")
	t.Setenv("ML_SERVICE_URL", "http://ml:8001")
	t.Setenv("UPSTREAM_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://cache:5432/bff?sslmode=disable", cfg.CacheURL)
	assert.Equal(t, "http://core:8000", cfg.CoreServiceURL)
	assert.Equal(t, "http://ml:8001", cfg.MLServiceURL)
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{
			name:  "cache url without scheme",
			key:   "CACHE_URL",
			value: "not-a-url",
		},
		{
			name:  "zero upstream timeout",
			key:   "UPSTREAM_TIMEOUT",
			value: "0s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSlogLevel_UnknownFallsBackToInfo(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"

	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
