package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("SOURCE_FILE", "images.json")
	t.Setenv("BOUNDARY_FILE", "lsib.geojson")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "images.json", cfg.SourceFile)
	assert.Equal(t, time.Duration(0), cfg.CacheTTL)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 24*time.Hour, cfg.RefreshInterval)
	assert.Equal(t, 4, cfg.FetchConcurrency)
	assert.Equal(t, 30, cfg.StoreMaxHistory)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "out", cfg.OutputDir)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SOURCE_URL", "https://data.example.org")
	t.Setenv("BOUNDARY_URL", "https://data.example.org/lsib.geojson")
	t.Setenv("CACHE_PATH", "cache.db")
	t.Setenv("CACHE_TTL", "168h")
	t.Setenv("FETCH_CONCURRENCY", "8")
	t.Setenv("REFRESH_INTERVAL", "6h")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "cache.db", cfg.CachePath)
	assert.Equal(t, 168*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 8, cfg.FetchConcurrency)
	assert.Equal(t, 6*time.Hour, cfg.RefreshInterval)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"no source", map[string]string{"BOUNDARY_FILE": "b"}},
		{"no boundary", map[string]string{"SOURCE_FILE": "s"}},
		{"bad duration", map[string]string{"SOURCE_FILE": "s", "BOUNDARY_FILE": "b", "CACHE_TTL": "weekly"}},
		{"bad int", map[string]string{"SOURCE_FILE": "s", "BOUNDARY_FILE": "b", "FETCH_CONCURRENCY": "many"}},
		{"zero concurrency", map[string]string{"SOURCE_FILE": "s", "BOUNDARY_FILE": "b", "FETCH_CONCURRENCY": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"SOURCE_URL", "SOURCE_FILE", "BOUNDARY_URL", "BOUNDARY_FILE"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
