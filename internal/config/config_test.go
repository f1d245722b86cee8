package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv("PROXY_HOST", "gate.example.net")
	t.Setenv("PROXY_PORT", "8000")
	t.Setenv("PROXY_USERNAME", "user")
	t.Setenv("PROXY_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := validConfig(t)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Scraper.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Scraper.RunTimeout)
	assert.Equal(t, 120*time.Second, cfg.Scraper.UserWait)
	assert.Equal(t, 50, cfg.Scraper.BulkLimit)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 45*time.Second, cfg.Browser.PageTimeout)
	assert.Equal(t, 1, cfg.Browser.MaxLaunches)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SCRAPER_MAX_ATTEMPTS", "5")
	t.Setenv("SCRAPER_RUN_TIMEOUT", "3m")
	t.Setenv("BROWSER_HEADLESS", "false")

	cfg := validConfig(t)

	assert.Equal(t, 5, cfg.Scraper.MaxAttempts)
	assert.Equal(t, 3*time.Minute, cfg.Scraper.RunTimeout)
	assert.False(t, cfg.Browser.Headless)
}

func TestValidateRequiresProxyCredentials(t *testing.T) {
	t.Setenv("PROXY_HOST", "")
	t.Setenv("PROXY_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Error(t, cfg.Validate())
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := validConfig(t)

	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsInvertedPacing(t *testing.T) {
	t.Setenv("SCRAPER_PACE_MIN", "10s")
	t.Setenv("SCRAPER_PACE_MAX", "1s")

	cfg := validConfig(t)

	assert.Error(t, cfg.Validate())
}
