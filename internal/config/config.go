// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"SITECMS_DB_PATH" envDefault:"./data/sitecms.db"`
	SessionSecret string `env:"SITECMS_SESSION_SECRET,required"`
	ServerHost    string `env:"SITECMS_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"SITECMS_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"SITECMS_ENV" envDefault:"development"`
	LogLevel      string `env:"SITECMS_LOG_LEVEL" envDefault:"info"`

	// Public site
	SiteName        string `env:"SITECMS_SITE_NAME" envDefault:"CarePath Health"`
	SiteDescription string `env:"SITECMS_SITE_DESCRIPTION" envDefault:"Compassionate care, close to home."`
	// BaseURL is the absolute site URL used in feeds and SEO tags. It is
	// derived from the server address when empty.
	BaseURL         string `env:"SITECMS_BASE_URL"`
	// SiteNoIndex blocks all crawlers, for staging sites.
	SiteNoIndex     bool   `env:"SITECMS_SITE_NOINDEX" envDefault:"false"`

	// Dashboard
	// CMS API the dashboard calls; defaults to this server's /api/v1
	APIURL          string        `env:"SITECMS_API_URL"`
	SessionLifetime time.Duration `env:"SITECMS_SESSION_LIFETIME" envDefault:"24h"`
	RequestTimeout  time.Duration `env:"SITECMS_REQUEST_TIMEOUT" envDefault:"30s"`

	// API throttling
	APIGlobalRPS   float64 `env:"SITECMS_API_GLOBAL_RPS" envDefault:"100"`
	APIGlobalBurst int     `env:"SITECMS_API_GLOBAL_BURST" envDefault:"200"`
	APIKeyRPS      float64 `env:"SITECMS_API_KEY_RPS" envDefault:"10"`
	APIKeyBurst    int     `env:"SITECMS_API_KEY_BURST" envDefault:"20"`

	// Cache configuration
	RedisURL     string `env:"SITECMS_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"SITECMS_CACHE_PREFIX" envDefault:"sitecms:"` // Redis key prefix
	CacheTTL     int    `env:"SITECMS_CACHE_TTL" envDefault:"300"`        // Default cache TTL in seconds
	CacheMaxSize int    `env:"SITECMS_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Scheduler
	EventRetentionDays int `env:"SITECMS_EVENT_RETENTION_DAYS" envDefault:"90"`

	// Seeding configuration
	AdminAPIKey string `env:"SITECMS_ADMIN_API_KEY"`              // Bootstrap key with every permission
	DoSeed      bool   `env:"SITECMS_DO_SEED" envDefault:"false"` // Create demo pages in an empty database
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// SiteURL returns the absolute public URL without a trailing slash.
func (c Config) SiteURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return "http://" + c.ServerAddr()
}

// DashboardAPIURL returns the API base URL the dashboard client uses.
func (c Config) DashboardAPIURL() string {
	if c.APIURL != "" {
		return strings.TrimRight(c.APIURL, "/")
	}
	host := c.ServerHost
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d/api/v1", host, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// CacheDefaultTTL returns CacheTTL as a duration.
func (c Config) CacheDefaultTTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// MinAdminAPIKeyLength is the minimum length of a configured admin API key.
const MinAdminAPIKeyLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("SITECMS_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, errors.New("SITECMS_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("SITECMS_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.AdminAPIKey != "" && len(cfg.AdminAPIKey) < MinAdminAPIKeyLength {
		return nil, fmt.Errorf("SITECMS_ADMIN_API_KEY must be at least %d characters long, got %d",
			MinAdminAPIKeyLength, len(cfg.AdminAPIKey))
	}

	if cfg.SessionLifetime <= 0 {
		return nil, fmt.Errorf("SITECMS_SESSION_LIFETIME must be positive, got %s", cfg.SessionLifetime)
	}

	if cfg.EventRetentionDays < 1 {
		return nil, fmt.Errorf("SITECMS_EVENT_RETENTION_DAYS must be at least 1, got %d", cfg.EventRetentionDays)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
