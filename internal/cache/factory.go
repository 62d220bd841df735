package cache

import (
	"log/slog"
	"net/url"
	"time"
)

// Cache backends selectable via configuration.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and tunes the cache backend.
type Config struct {
	// Backend is "memory" or "redis".
	Backend string

	// RedisURL is the connection URL when Backend is "redis".
	RedisURL string

	// Prefix is the Redis key prefix.
	Prefix string

	// DefaultTTL applies when Set is called with a zero TTL.
	DefaultTTL time.Duration

	// MaxEntries caps the memory backend (0 = unlimited).
	MaxEntries int

	// CleanupInterval is how often the memory backend sweeps expired
	// entries.
	CleanupInterval time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		Backend:         BackendMemory,
		Prefix:          "odir:",
		DefaultTTL:      time.Hour,
		MaxEntries:      10000,
		CleanupInterval: time.Minute,
	}
}

// New creates a cache backend from configuration. When Redis is
// selected but unreachable it falls back to the memory backend so the
// application still starts; cache contents are best-effort.
func New(cfg Config) Cacher {
	if cfg.Backend == BackendRedis && cfg.RedisURL != "" {
		rc, err := NewRedisCacheFromURL(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
		if err == nil {
			slog.Info("cache backend ready", "backend", BackendRedis, "url", SanitizeRedisURL(cfg.RedisURL))
			return rc
		}
		slog.Warn("redis cache unavailable, falling back to memory",
			"url", SanitizeRedisURL(cfg.RedisURL), "error", err)
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxEntries:      cfg.MaxEntries,
		CleanupInterval: cfg.CleanupInterval,
	})
}

// SanitizeRedisURL masks the password in a Redis URL so it can be
// logged.
func SanitizeRedisURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "[invalid URL]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "***")
		}
	}
	return u.String()
}
