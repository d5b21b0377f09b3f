package ratelimit

import (
	"net/http"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (prefix match when it ends in "/")
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int // 0 leaves unmatched endpoints unlimited
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig limits uploads per client and leaves every other route open.
// A non-positive uploadsPerMinute disables limiting.
func DefaultConfig(uploadsPerMinute int) *Config {
	if uploadsPerMinute <= 0 {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       map[string]bool{},
		EndpointConfigs: DefaultEndpointConfigs(uploadsPerMinute),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits.
func DefaultEndpointConfigs(uploadsPerMinute int) []EndpointConfig {
	return []EndpointConfig{
		// Each upload drives a browser over the whole list.
		{Path: "/upload", Method: http.MethodPost, Limit: uploadsPerMinute, Window: time.Minute, Burst: 1},
	}
}
