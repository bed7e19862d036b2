package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fleet-coordinator/pkg/ratelimit"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestMiddleware(t *testing.T) (*gin.Engine, func()) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	err = client.Ping(context.Background()).Err()
	require.NoError(t, err)

	config := ratelimit.DefaultConfig()
	config.RedisKeyPrefix = "test_ratelimit:"
	config.Limits["auth_login"] = ratelimit.RateLimit{
		RequestsPerMinute: 1,
		BurstSize:         1,
		WindowSize:        100 * time.Millisecond,
	}

	limiter := ratelimit.NewRedisRateLimiter(client, config)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(limiter))

	router.POST("/api/v1/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "login successful"})
	})

	router.GET("/api/v1/trips", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"trips": []string{}})
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return router, cleanup
}

func TestRateLimitMiddleware_BasicFunctionality(t *testing.T) {
	router, cleanup := setupTestMiddleware(t)
	defer cleanup()

	req1 := httptest.NewRequest("GET", "/api/v1/trips", nil)
	req1.Header.Set("X-Forwarded-For", "192.168.1.1")
	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, req1)

	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "120", w1.Header().Get("X-RateLimit-Limit")) // default category

	req2 := httptest.NewRequest("GET", "/api/v1/trips", nil)
	req2.Header.Set("X-Forwarded-For", "192.168.1.1")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)

	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestRateLimitMiddleware_RateLimitExceeded(t *testing.T) {
	router, cleanup := setupTestMiddleware(t)
	defer cleanup()

	clientIP := "192.168.1.2"

	req1 := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
	req1.Header.Set("X-Forwarded-For", clientIP)
	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, req1)

	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "1", w1.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w1.Header().Get("X-RateLimit-Burst"))

	// Second request within the window exceeds the burst
	req2 := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
	req2.Header.Set("X-Forwarded-For", clientIP)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)

	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
	assert.NotEmpty(t, w2.Header().Get("Retry-After"))
	assert.Contains(t, w2.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestRateLimitMiddleware_DifferentClients(t *testing.T) {
	router, cleanup := setupTestMiddleware(t)
	defer cleanup()

	req1 := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
	req1.Header.Set("X-Forwarded-For", "192.168.1.3")
	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, req1)

	assert.Equal(t, http.StatusOK, w1.Code)

	// A different IP gets its own window
	req2 := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
	req2.Header.Set("X-Forwarded-For", "192.168.1.4")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)

	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestRateLimitMiddleware_Headers(t *testing.T) {
	router, cleanup := setupTestMiddleware(t)
	defer cleanup()

	req := httptest.NewRequest("GET", "/api/v1/trips", nil)
	req.Header.Set("X-Forwarded-For", "192.168.1.5")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Window"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Burst"))
}

func TestGetClientID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("authenticated user", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/api/v1/trips", nil)
		c.Set("user_id", "user123")

		assert.Equal(t, "user:user123", getClientID(c))
	})

	t.Run("anonymous falls back to IP", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/api/v1/trips", nil)
		c.Request.Header.Set("X-Forwarded-For", "192.168.1.1")

		assert.Equal(t, "anon:192.168.1.1", getClientID(c))
	})
}

func TestGetEndpointID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		method   string
		path     string
		expected string
	}{
		{
			name:     "static path unchanged",
			method:   "GET",
			path:     "/api/v1/trips",
			expected: "GET:/api/v1/trips",
		},
		{
			name:     "object id collapsed",
			method:   "POST",
			path:     "/api/v1/trips/507f1f77bcf86cd799439011/position",
			expected: "POST:/api/v1/trips/*/position",
		},
		{
			name:     "numeric index collapsed",
			method:   "PATCH",
			path:     "/api/v1/trips/507f1f77bcf86cd799439011/parcels/2",
			expected: "PATCH:/api/v1/trips/*/parcels/*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(tt.method, tt.path, nil)

			assert.Equal(t, tt.expected, getEndpointID(c))
		})
	}
}
