package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
	Proxy     ProxyConfig
	Pacing    PacingConfig
	LinkedIn  LinkedInConfig
	Session   SessionConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// CORSConfig holds cross-origin configuration. The extension talks to us
// from a browser context, so preflights must succeed for its origin.
type CORSConfig struct {
	AllowOrigins []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
	MaxAge       time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// AuthConfig holds API authentication configuration.
type AuthConfig struct {
	AccountsPath string `envconfig:"ACCOUNTS_PATH" default:"accounts.yaml"`
}

// ProxyConfig holds proxied-execution configuration.
type ProxyConfig struct {
	CallTimeout  time.Duration `envconfig:"PROXY_CALL_TIMEOUT" default:"30s"`
	PingInterval time.Duration `envconfig:"PROXY_PING_INTERVAL" default:"25s"`
}

// PacingConfig bounds pagination against the remote side's abuse detection.
type PacingConfig struct {
	MinDelay time.Duration `envconfig:"PACING_MIN_DELAY" default:"1s"`
	MaxDelay time.Duration `envconfig:"PACING_MAX_DELAY" default:"4s"`
	// HardCap bounds unbounded fetch requests. Zero disables the cap.
	HardCap int `envconfig:"PACING_HARD_CAP" default:"1000"`
}

// LinkedInConfig holds remote endpoint configuration for direct execution.
type LinkedInConfig struct {
	BaseURL   string        `envconfig:"LINKEDIN_BASE_URL" default:"https://www.linkedin.com"`
	UserAgent string        `envconfig:"LINKEDIN_USER_AGENT" default:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"`
	Timeout   time.Duration `envconfig:"LINKEDIN_TIMEOUT" default:"30s"`
	// RequestsPerSecond limits direct voyager calls. Fractional rates are
	// intentional: one call every few seconds is the normal regime.
	RequestsPerSecond float64 `envconfig:"LINKEDIN_RPS" default:"0.5"`
}

// SessionConfig holds cached-session vault configuration.
type SessionConfig struct {
	VaultPath string `envconfig:"SESSION_VAULT_PATH" default:"/tmp/linkbridge/sessions.vault"`
	// VaultKey is a 64-char hex string (32 bytes). Empty disables
	// persistence; sessions then live in memory only.
	VaultKey string `envconfig:"SESSION_VAULT_KEY" default:""`
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
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
			MaxAge:       12 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Auth: AuthConfig{
			AccountsPath: "accounts.yaml",
		},
		Proxy: ProxyConfig{
			CallTimeout:  30 * time.Second,
			PingInterval: 25 * time.Second,
		},
		Pacing: PacingConfig{
			MinDelay: time.Second,
			MaxDelay: 4 * time.Second,
			HardCap:  1000,
		},
		LinkedIn: LinkedInConfig{
			BaseURL:           "https://www.linkedin.com",
			UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 0.5,
		},
		Session: SessionConfig{
			VaultPath: "/tmp/linkbridge/sessions.vault",
		},
	}
}
