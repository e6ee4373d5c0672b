// Package config holds the runtime configuration for the Discogs collector:
// API credentials, pacing limits, currency resolution, and server settings.
package config

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Discogs API defaults.
const (
	// DefaultBaseURL is the Discogs REST API root.
	DefaultBaseURL = "https://api.discogs.com"

	// DefaultUserAgent identifies this application to Discogs (required).
	DefaultUserAgent = "DiscogsCollectionSorter/1.0"

	// DefaultCurrency is the currency code used for price suggestions.
	DefaultCurrency = "EUR"

	// DefaultCondition is the condition key looked up in price suggestion
	// responses. Discogs keys suggestions by condition label.
	DefaultCondition = "Very Good (VG)"

	// PageSize is the per_page value for collection listing requests.
	PageSize = 100
)

// currencySymbols maps ISO currency codes to display symbols.
var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"JPY": "¥",
	"CAD": "CA$",
	"AUD": "AU$",
}

// CurrencySymbol resolves a currency code to its display symbol.
// Unknown codes fall back to the DefaultCurrency symbol.
func CurrencySymbol(code string) string {
	if sym, ok := currencySymbols[code]; ok {
		return sym
	}
	return currencySymbols[DefaultCurrency]
}

// Config holds application configuration.
type Config struct {
	// BaseURL is the Discogs API root URL.
	BaseURL string

	// UserAgent sent with every request (required by Discogs).
	UserAgent string

	// Currency is the currency code for price suggestions.
	Currency string

	// Condition is the price suggestion condition key.
	Condition string

	// RequestTimeout is the per-request transport timeout.
	RequestTimeout time.Duration

	// Port is the HTTP server listen port.
	Port string

	// RedisURL enables the optional response cache when non-empty.
	RedisURL string

	// CacheTTL is how long cached API responses stay valid.
	CacheTTL time.Duration

	// DebugLogDir is where debug log files are written when enabled.
	DebugLogDir string

	// token is the Discogs personal access token. Guarded because the
	// web UI can replace it at runtime.
	mu    sync.RWMutex
	token string
}

// DefaultConfig returns a configuration with safe defaults, reading the
// token and overrides from the environment.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		UserAgent:      DefaultUserAgent,
		Currency:       DefaultCurrency,
		Condition:      DefaultCondition,
		RequestTimeout: 30 * time.Second,
		Port:           getEnv("PORT", "7341"),
		RedisURL:       os.Getenv("REDIS_URL"),
		CacheTTL:       10 * time.Minute,
		DebugLogDir:    getEnv("DEBUG_LOG_DIR", "logs"),
		token:          os.Getenv("DISCOGS_TOKEN"),
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.Currency == "" {
		return fmt.Errorf("currency cannot be empty")
	}
	if c.Condition == "" {
		return fmt.Errorf("condition key cannot be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache TTL cannot be negative")
	}
	return nil
}

// Token returns the configured Discogs token, or "" if none is set.
func (c *Config) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the Discogs token at runtime.
func (c *Config) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// HasToken reports whether a token is configured.
func (c *Config) HasToken() bool {
	return c.Token() != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
