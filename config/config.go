// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"alignment-feed-bff/internal/auth"
	"alignment-feed-bff/internal/session"
)

// Config holds the application configuration
type Config struct {
	Port        string // Service port
	FeedBaseURL string // Alignment Feed API base URL

	SessionSecret      string        // Secret the session cookie is sealed under
	SessionMaxAge      time.Duration // Session cookie lifetime
	SecureCookies      bool          // Set the Secure attribute on cookies
	RefreshThreshold   time.Duration // Refresh when the token is this close to expiry
	DefaultTokenExpiry time.Duration // Assumed lifetime for tokens without an exp claim

	Auth0Domain       string // Auth0 tenant domain
	Auth0ClientID     string
	Auth0ClientSecret string
	Auth0Audience     string // API audience requested for access tokens
	Auth0CallbackURL  string // Absolute URL of /auth/callback

	UpstreamTimeout time.Duration // Per-request timeout against the feed API
	CacheTTL        time.Duration // Anonymous response cache TTL
	CacheSize       int           // Anonymous response cache max entries

	BreakerFailureThreshold int           // Consecutive failures before the circuit opens
	BreakerCooldown         time.Duration // How long an open circuit stays open

	RateLimitRPS   float64 // Requests per second per client IP on auth routes
	RateLimitBurst int
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	config := &Config{
		Port:               getEnv("PORT", "3000"),
		FeedBaseURL:        getEnv("FEED_API_BASE_URL", "http://alignment-feed:8080"),
		SessionSecret:      getEnv("SESSION_SECRET", ""),
		SessionMaxAge:      session.DefaultMaxAge,
		SecureCookies:      getEnv("SECURE_COOKIES", "true") != "false",
		RefreshThreshold:   auth.DefaultRefreshThreshold,
		DefaultTokenExpiry: 24 * time.Hour,

		Auth0Domain:       getEnv("AUTH0_DOMAIN", ""),
		Auth0ClientID:     getEnv("AUTH0_CLIENT_ID", ""),
		Auth0ClientSecret: getEnv("AUTH0_CLIENT_SECRET", ""),
		Auth0Audience:     getEnv("AUTH0_AUDIENCE", ""),
		Auth0CallbackURL:  getEnv("AUTH0_CALLBACK_URL", ""),

		UpstreamTimeout: 10 * time.Second,
		CacheTTL:        30 * time.Second,
		CacheSize:       256,

		BreakerFailureThreshold: 5,
		BreakerCooldown:         30 * time.Second,

		RateLimitRPS:   5,
		RateLimitBurst: 10,
	}

	durations := map[string]*time.Duration{
		"SESSION_MAX_AGE":      &config.SessionMaxAge,
		"REFRESH_THRESHOLD":    &config.RefreshThreshold,
		"DEFAULT_TOKEN_EXPIRY": &config.DefaultTokenExpiry,
		"UPSTREAM_TIMEOUT":     &config.UpstreamTimeout,
		"CACHE_TTL":            &config.CacheTTL,
		"BREAKER_COOLDOWN":     &config.BreakerCooldown,
	}
	for key, dst := range durations {
		if raw := os.Getenv(key); raw != "" {
			duration, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s format: %w", key, err)
			}
			*dst = duration
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.FeedBaseURL == "" {
		return fmt.Errorf("FEED_API_BASE_URL cannot be empty")
	}

	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET cannot be empty")
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	return nil
}

// AuthFlowConfigured reports whether the hosted-login redirect flow can
// run. Without provider credentials the service still serves the feed
// and /api/auth/sync; only /auth/login and /auth/callback are disabled.
func (c *Config) AuthFlowConfigured() bool {
	return c.Auth0Domain != "" && c.Auth0ClientID != "" && c.Auth0ClientSecret != "" && c.Auth0CallbackURL != ""
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	// Check for _FILE suffix (Docker secrets)
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
