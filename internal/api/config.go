package api

import (
	"os"
	"strconv"
)

// Config holds client-side settings for talking to the backend.
type Config struct {
	// BaseURL of the REST API, without a trailing slash.
	BaseURL string

	// CheckoutBase is the payment provider base used when the server
	// returns only a preference id instead of a full checkout URL.
	CheckoutBase string

	// TimeoutMs bounds each HTTP request.
	TimeoutMs int

	// LogHTTP enables one-line call logging to stderr.
	LogHTTP bool
}

// DefaultConfig returns a Config with development defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "http://localhost:8080",
		CheckoutBase: "https://sandbox.mercadopago.com.ar",
		TimeoutMs:    15000,
		LogHTTP:      false,
	}
}

// LoadConfig reads client configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("FERIA_API"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("FERIA_CHECKOUT_BASE"); v != "" {
		cfg.CheckoutBase = v
	}
	if v := os.Getenv("FERIA_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("FERIA_LOG_HTTP"); v != "" {
		cfg.LogHTTP, _ = strconv.ParseBool(v)
	}

	return cfg
}
