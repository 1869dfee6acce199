package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all host configuration.
type Config struct {
	Server    ServerConfig
	Page      PageConfig
	I18n      I18nConfig
	HTTP      HTTPConfig
	Script    ScriptConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// PageConfig locates the page document and the module scripts.
type PageConfig struct {
	Path       string `envconfig:"PAGE_PATH" default:""`
	URL        string `envconfig:"PAGE_URL" default:"http://localhost:8000/"`
	ModulesDir string `envconfig:"MODULES_DIR" default:"modules"`
	Pattern    string `envconfig:"MODULES_PATTERN" default:"**/*.js"`
}

// I18nConfig holds language bundle configuration.
type I18nConfig struct {
	Dir             string `envconfig:"I18N_DIR" default:""`
	DefaultLanguage string `envconfig:"I18N_DEFAULT_LANG" default:"en"`
}

// HTTPConfig configures the transport behind the server capability.
type HTTPConfig struct {
	Timeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	MaxRetries int           `envconfig:"HTTP_MAX_RETRIES" default:"3"`
}

// ScriptConfig bounds JavaScript module execution.
type ScriptConfig struct {
	Timeout time.Duration `envconfig:"SCRIPT_TIMEOUT" default:"5s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Page: PageConfig{
			URL:        "http://localhost:8000/",
			ModulesDir: "modules",
			Pattern:    "**/*.js",
		},
		I18n: I18nConfig{
			DefaultLanguage: "en",
		},
		HTTP: HTTPConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Script: ScriptConfig{
			Timeout: 5 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
