package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	err = client.Ping(context.Background()).Err()
	require.NoError(t, err)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, cleanup
}

func TestRedisRateLimiter_Allow_BasicFunctionality(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	config := DefaultConfig()
	config.Limits["default"] = RateLimit{
		RequestsPerMinute: 5,
		BurstSize:         3,
		WindowSize:        time.Minute,
	}

	limiter := NewRedisRateLimiter(client, config)

	clientID := "test-client"
	endpoint := "GET:/api/v1/trips"

	// First 3 requests should be allowed (burst size)
	for i := 0; i < 3; i++ {
		allowed, resetTime, err := limiter.Allow(clientID, endpoint)
		assert.NoError(t, err)
		assert.True(t, allowed, "Request %d should be allowed", i+1)
		assert.Equal(t, time.Duration(0), resetTime)
	}

	// 4th request should be blocked (exceeded burst)
	allowed, resetTime, err := limiter.Allow(clientID, endpoint)
	assert.NoError(t, err)
	assert.False(t, allowed, "4th request should be blocked")
	assert.Greater(t, resetTime, time.Duration(0))
}

func TestRedisRateLimiter_Allow_WindowReset(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	config := DefaultConfig()
	config.Limits["default"] = RateLimit{
		RequestsPerMinute: 10,
		BurstSize:         1,
		WindowSize:        200 * time.Millisecond,
	}

	limiter := NewRedisRateLimiter(client, config)

	clientID := "test-client"
	endpoint := "GET:/api/v1/trips"

	allowed, _, err := limiter.Allow(clientID, endpoint)
	assert.NoError(t, err)
	assert.True(t, allowed)

	allowed, resetTime, err := limiter.Allow(clientID, endpoint)
	assert.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, resetTime, time.Duration(0))

	time.Sleep(250 * time.Millisecond)

	allowed, _, err = limiter.Allow(clientID, endpoint)
	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_Allow_DifferentClients(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	config := DefaultConfig()
	config.Limits["default"] = RateLimit{
		RequestsPerMinute: 5,
		BurstSize:         1,
		WindowSize:        time.Minute,
	}

	limiter := NewRedisRateLimiter(client, config)

	endpoint := "GET:/api/v1/trips"

	allowed1, _, err := limiter.Allow("client1", endpoint)
	assert.NoError(t, err)
	assert.True(t, allowed1)

	allowed2, _, err := limiter.Allow("client2", endpoint)
	assert.NoError(t, err)
	assert.True(t, allowed2)

	allowed1, _, err = limiter.Allow("client1", endpoint)
	assert.NoError(t, err)
	assert.False(t, allowed1)

	allowed2, _, err = limiter.Allow("client2", endpoint)
	assert.NoError(t, err)
	assert.False(t, allowed2)
}

func TestRedisRateLimiter_Allow_DisabledLimiter(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	config := DefaultConfig()
	config.Enabled = false

	limiter := NewRedisRateLimiter(client, config)

	for i := 0; i < 10; i++ {
		allowed, resetTime, err := limiter.Allow("client", "POST:/api/v1/auth/login")
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, time.Duration(0), resetTime)
	}
}

func TestRedisRateLimiter_LoginCategoryIsStricter(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	limiter := NewRedisRateLimiter(client, DefaultConfig())

	clientID := "anon:10.0.0.1"

	loginBurst := DefaultConfig().Limits["auth_login"].BurstSize
	for i := 0; i < loginBurst; i++ {
		allowed, _, err := limiter.Allow(clientID, "POST:/api/v1/auth/login")
		assert.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, _, err := limiter.Allow(clientID, "POST:/api/v1/auth/login")
	assert.NoError(t, err)
	assert.False(t, allowed, "login attempts beyond the burst must be blocked")

	// The same client is still allowed on other endpoints.
	allowed, _, err = limiter.Allow(clientID, "GET:/api/v1/trips")
	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisRateLimiter_GetStats(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	limiter := NewRedisRateLimiter(client, DefaultConfig())

	stats := limiter.GetStats()
	assert.Equal(t, int64(0), stats.TotalRequests)
	assert.Equal(t, int64(0), stats.BlockedRequests)

	limiter.Allow("client1", "GET:/api/v1/trips")
	limiter.Allow("client1", "GET:/api/v1/trips")
	limiter.Allow("client2", "GET:/api/v1/trips")

	stats = limiter.GetStats()
	assert.Equal(t, int64(3), stats.TotalRequests)
}

func TestConfig_GetEndpointKey(t *testing.T) {
	config := DefaultConfig()

	tests := []struct {
		endpoint string
		expected string
	}{
		{"POST:/api/v1/auth/login", "auth_login"},
		{"POST:/api/v1/auth/register", "auth"},
		{"POST:/api/v1/trips/*/position", "positions"},
		{"POST:/api/v1/chat/messages", "chat_send"},
		{"GET:/api/v1/health", "health"},
		{"GET:/api/v1/trips", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			assert.Equal(t, tt.expected, config.GetEndpointKey(tt.endpoint))
		})
	}
}
