package config

import (
	"testing"
	"time"
)

func TestCurrencySymbol(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected string
	}{
		{name: "euro", code: "EUR", expected: "€"},
		{name: "us dollar", code: "USD", expected: "$"},
		{name: "pound", code: "GBP", expected: "£"},
		{name: "yen", code: "JPY", expected: "¥"},
		{name: "canadian dollar", code: "CAD", expected: "CA$"},
		{name: "unknown falls back to default", code: "CHF", expected: "€"},
		{name: "empty falls back to default", code: "", expected: "€"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrencySymbol(tt.code); got != tt.expected {
				t.Errorf("CurrencySymbol(%q) = %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{
			name:        "defaults are valid",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "empty base URL",
			mutate:      func(c *Config) { c.BaseURL = "" },
			expectError: true,
		},
		{
			name:        "empty user agent",
			mutate:      func(c *Config) { c.UserAgent = "" },
			expectError: true,
		},
		{
			name:        "empty currency",
			mutate:      func(c *Config) { c.Currency = "" },
			expectError: true,
		},
		{
			name:        "empty condition key",
			mutate:      func(c *Config) { c.Condition = "" },
			expectError: true,
		},
		{
			name:        "zero request timeout",
			mutate:      func(c *Config) { c.RequestTimeout = 0 },
			expectError: true,
		},
		{
			name:        "negative cache TTL",
			mutate:      func(c *Config) { c.CacheTTL = -time.Second },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectError && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestConfig_TokenRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetToken("")

	if cfg.HasToken() {
		t.Error("expected no token after clearing")
	}

	cfg.SetToken("abc123")
	if got := cfg.Token(); got != "abc123" {
		t.Errorf("Token() = %q, want %q", got, "abc123")
	}
	if !cfg.HasToken() {
		t.Error("expected HasToken() to be true")
	}
}
