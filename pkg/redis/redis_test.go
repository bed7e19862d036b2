package redis

import (
	"strings"
	"testing"
	"time"

	"fleet-coordinator/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(addr string) config.RedisConfig {
	host, port, _ := strings.Cut(addr, ":")
	return config.RedisConfig{
		Host:         host,
		Port:         port,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		RetryDelay:   time.Second,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	}
}

func TestNewClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := NewClient(testConfig(mr.Addr()))
	defer client.Close()

	require.NotNil(t, client)
	assert.NotNil(t, client.Raw())
	assert.True(t, client.IsConnected())
}

func TestNewClientFromURL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := testConfig(mr.Addr())
	cfg.URL = "redis://" + mr.Addr()

	client := NewClient(cfg)
	defer client.Close()

	assert.True(t, client.IsConnected())
}

func TestHealthCheck(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := NewClient(testConfig(mr.Addr()))
	defer client.Close()

	status := client.HealthCheck()

	assert.True(t, status.IsConnected)
	assert.Empty(t, status.Error)
	assert.NotEmpty(t, status.ConnectionInfo)
	assert.False(t, status.LastPing.IsZero())
}

func TestHealthCheckUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := NewClient(testConfig(mr.Addr()))
	defer client.Close()

	mr.Close()

	status := client.HealthCheck()
	assert.False(t, status.IsConnected)
	assert.NotEmpty(t, status.Error)
}
