package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.APIBaseURL)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 300*time.Millisecond, cfg.ValidationDebounce)
	assert.Equal(t, 24*time.Hour, cfg.FinalizeGuardTTL)
	assert.Empty(t, cfg.RedisURL)
	assert.Zero(t, cfg.BundleBalance)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("PAGE_SIZE", "50")
	t.Setenv("REQUEST_TIMEOUT", "3")
	t.Setenv("VALIDATION_DEBOUNCE", "150ms")
	t.Setenv("CARD_FEE_BPS", "290")
	t.Setenv("POST_UUID", "0b7c6c1e-2f7a-4c55-9d1e-4c1f5b0f9a11")
	t.Setenv("BUNDLE_BALANCE", "12")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, "staging", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 150*time.Millisecond, cfg.ValidationDebounce)
	assert.Equal(t, int64(290), cfg.CardFeeBps)
	assert.Equal(t, "0b7c6c1e-2f7a-4c55-9d1e-4c1f5b0f9a11", cfg.PostUUID)
	assert.Equal(t, 12, cfg.BundleBalance)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing api", mutate: func(c *Config) { c.APIBaseURL = "" }, wantErr: true},
		{name: "zero page size", mutate: func(c *Config) { c.PageSize = 0 }, wantErr: true},
		{name: "fee above 100%", mutate: func(c *Config) { c.CardFeeBps = 10001 }, wantErr: true},
		{name: "negative bundle balance", mutate: func(c *Config) { c.BundleBalance = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{APIBaseURL: "http://api", PageSize: 20, CardFeeBps: 290}
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestGetDurationEnv_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, time.Minute, getDurationEnv("SOME_DURATION", time.Minute))
}
