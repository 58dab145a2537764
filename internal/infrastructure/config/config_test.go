package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	// Proxy config
	assert.Equal(t, 30*time.Second, cfg.Proxy.CallTimeout)

	// Pacing config
	assert.Equal(t, time.Second, cfg.Pacing.MinDelay)
	assert.Equal(t, 4*time.Second, cfg.Pacing.MaxDelay)
	assert.Equal(t, 1000, cfg.Pacing.HardCap)
	assert.LessOrEqual(t, cfg.Pacing.MinDelay, cfg.Pacing.MaxDelay)

	// LinkedIn config
	assert.Equal(t, "https://www.linkedin.com", cfg.LinkedIn.BaseURL)
	assert.NotEmpty(t, cfg.LinkedIn.UserAgent)
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("PORT", "9100")
	os.Setenv("PROXY_CALL_TIMEOUT", "5s")
	os.Setenv("PACING_HARD_CAP", "50")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("PROXY_CALL_TIMEOUT")
		os.Unsetenv("PACING_HARD_CAP")
	}()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Proxy.CallTimeout)
	assert.Equal(t, 50, cfg.Pacing.HardCap)
}
