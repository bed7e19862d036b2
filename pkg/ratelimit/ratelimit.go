package ratelimit

import (
	"strings"
	"time"
)

// RateLimiter defines the interface for rate limiting functionality
type RateLimiter interface {
	Allow(clientID string, endpoint string) (bool, time.Duration, error)
	GetLimit(endpoint string) RateLimit
	GetStats() Stats
}

// RateLimit defines the configuration for one endpoint category
type RateLimit struct {
	RequestsPerMinute int           `json:"requestsPerMinute"`
	BurstSize         int           `json:"burstSize"`
	WindowSize        time.Duration `json:"windowSize"`
}

// Stats provides counters about rate limiting activity
type Stats struct {
	TotalRequests   int64 `json:"totalRequests"`
	BlockedRequests int64 `json:"blockedRequests"`
}

// Config holds the configuration for rate limiting
type Config struct {
	Limits          map[string]RateLimit `json:"limits"`
	RedisKeyPrefix  string               `json:"redisKeyPrefix"`
	Enabled         bool                 `json:"enabled"`
}

// DefaultConfig returns the rate limit categories used by the API
func DefaultConfig() *Config {
	return &Config{
		Limits: map[string]RateLimit{
			// Credential guessing is the main concern.
			"auth_login": {RequestsPerMinute: 5, BurstSize: 3, WindowSize: time.Minute},
			"auth":       {RequestsPerMinute: 10, BurstSize: 5, WindowSize: time.Minute},

			// Drivers report positions continuously while on a trip.
			"positions": {RequestsPerMinute: 120, BurstSize: 30, WindowSize: time.Minute},

			// Chat sends are bursty but human-paced.
			"chat_send": {RequestsPerMinute: 60, BurstSize: 20, WindowSize: time.Minute},

			"health":  {RequestsPerMinute: 1000, BurstSize: 100, WindowSize: time.Minute},
			"default": {RequestsPerMinute: 120, BurstSize: 30, WindowSize: time.Minute},
		},
		RedisKeyPrefix: "ratelimit:",
		Enabled:        true,
	}
}

// GetEndpointKey maps a method:path endpoint to a rate limit category
func (c *Config) GetEndpointKey(endpoint string) string {
	switch {
	case endpoint == "POST:/api/v1/auth/login":
		return "auth_login"
	case strings.HasPrefix(endpoint, "POST:/api/v1/auth/"):
		return "auth"
	case strings.HasSuffix(endpoint, "/position"):
		return "positions"
	case endpoint == "POST:/api/v1/chat/messages":
		return "chat_send"
	case endpoint == "GET:/api/v1/health":
		return "health"
	}
	return "default"
}

// LimitFor resolves the configured limit for an endpoint category
func (c *Config) LimitFor(category string) RateLimit {
	if limit, exists := c.Limits[category]; exists {
		return limit
	}
	if limit, exists := c.Limits["default"]; exists {
		return limit
	}
	return RateLimit{RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute}
}
