// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"ODIR_DB_PATH" envDefault:"./data/odir.db"`
	SessionSecret string `env:"ODIR_SESSION_SECRET,required"`
	ServerHost    string `env:"ODIR_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"ODIR_SERVER_PORT" envDefault:"8080"`
	BaseURL       string `env:"ODIR_BASE_URL" envDefault:"http://localhost:8080"`
	Env           string `env:"ODIR_ENV" envDefault:"development"`
	LogLevel      string `env:"ODIR_LOG_LEVEL" envDefault:"info"`

	// Origins (host:port, no scheme) allowed to make cross-origin mutating
	// requests, for a front end served from a different origin
	CSRFTrustedOrigins []string `env:"ODIR_CSRF_TRUSTED_ORIGINS" envSeparator:","`

	// Cache configuration
	RedisURL     string `env:"ODIR_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"ODIR_CACHE_PREFIX" envDefault:"odir:"`   // Redis key prefix
	CacheTTL     int    `env:"ODIR_CACHE_TTL" envDefault:"300"`        // Default cache TTL in seconds
	CacheMaxSize int    `env:"ODIR_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Events platform (Luma) configuration
	LumaAPIURL string `env:"ODIR_LUMA_API_URL" envDefault:"https://api.lu.ma"`
	LumaAPIKey string `env:"ODIR_LUMA_API_KEY"`

	// Billing (Stripe) configuration
	StripeSecretKey string `env:"ODIR_STRIPE_SECRET_KEY"`
	StripePriceID   string `env:"ODIR_STRIPE_PRICE_ID"` // Subscription price for checkout sessions

	// Object storage (S3-compatible) configuration
	S3Endpoint  string `env:"ODIR_S3_ENDPOINT" envDefault:"localhost:9000"`
	S3AccessKey string `env:"ODIR_S3_ACCESS_KEY"`
	S3SecretKey string `env:"ODIR_S3_SECRET_KEY"`
	S3Bucket    string `env:"ODIR_S3_BUCKET" envDefault:"odir-media"`
	S3UseSSL    bool   `env:"ODIR_S3_USE_SSL" envDefault:"false"`

	// Image search (Unsplash) configuration
	UnsplashAccessKey string `env:"ODIR_UNSPLASH_ACCESS_KEY"`

	// Mail configuration. With no SMTP host set, verification links are
	// logged instead of sent (development convenience).
	SMTPHost     string `env:"ODIR_SMTP_HOST"`
	SMTPPort     int    `env:"ODIR_SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"ODIR_SMTP_USER"`
	SMTPPassword string `env:"ODIR_SMTP_PASSWORD"`
	SMTPFrom     string `env:"ODIR_SMTP_FROM" envDefault:"no-reply@localhost"`

	// Legacy directory import (MySQL) configuration
	LegacyDBDSN string `env:"ODIR_LEGACY_DB_DSN"` // e.g. user:pass@tcp(host:3306)/community

	// GeoIP configuration
	GeoIPDBPath string `env:"ODIR_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Audit trail retention in days (0 disables pruning)
	AuditRetentionDays int `env:"ODIR_AUDIT_RETENTION_DAYS" envDefault:"90"`

	// Rate limiting
	APIRateLimit  int `env:"ODIR_API_RATE_LIMIT" envDefault:"60"` // Requests per minute per IP
	AuthRateLimit int `env:"ODIR_AUTH_RATE_LIMIT" envDefault:"5"` // Auth attempts per minute per IP

	// Request timeout in seconds for regular (non-streaming) routes
	RequestTimeout int `env:"ODIR_REQUEST_TIMEOUT" envDefault:"60"`

	// Seeding configuration
	AdminEmail    string `env:"ODIR_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword string `env:"ODIR_ADMIN_PASSWORD"` // Random when empty (logged once on first run)
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// LumaEnabled returns true if the events platform API key is configured.
func (c Config) LumaEnabled() bool {
	return c.LumaAPIKey != ""
}

// BillingEnabled returns true if Stripe is configured.
func (c Config) BillingEnabled() bool {
	return c.StripeSecretKey != "" && c.StripePriceID != ""
}

// UnsplashEnabled returns true if image search is configured.
func (c Config) UnsplashEnabled() bool {
	return c.UnsplashAccessKey != ""
}

// SMTPEnabled returns true if outgoing mail is configured.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// MinSessionSecretLength is the minimum required length for the session secret.
// AES-256 requires 32 bytes minimum for secure encryption.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("ODIR_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("ODIR_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("ODIR_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
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
