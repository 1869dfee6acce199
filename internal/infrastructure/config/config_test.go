package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "http://localhost:8000/", cfg.Page.URL)
	assert.Equal(t, "modules", cfg.Page.ModulesDir)
	assert.Equal(t, "**/*.js", cfg.Page.Pattern)
	assert.Equal(t, "en", cfg.I18n.DefaultLanguage)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Script.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":              "9000",
		"PAGE_PATH":         "site/index.html",
		"PAGE_URL":          "https://legal-box.test/app#inbox",
		"MODULES_DIR":       "widgets",
		"I18N_DIR":          "lang",
		"I18N_DEFAULT_LANG": "fr",
		"HTTP_TIMEOUT":      "2s",
		"HTTP_MAX_RETRIES":  "0",
		"SCRIPT_TIMEOUT":    "250ms",
		"LOG_LEVEL":         "debug",
		"LOG_DEV":           "true",
		"RATE_LIMIT_RPS":    "5",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "site/index.html", cfg.Page.Path)
	assert.Equal(t, "https://legal-box.test/app#inbox", cfg.Page.URL)
	assert.Equal(t, "widgets", cfg.Page.ModulesDir)
	assert.Equal(t, "lang", cfg.I18n.Dir)
	assert.Equal(t, "fr", cfg.I18n.DefaultLanguage)
	assert.Equal(t, 2*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 0, cfg.HTTP.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Script.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 5, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadOrDefaultOnInvalidValue(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "not-a-duration")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
}
