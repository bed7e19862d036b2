package redis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"fleet-coordinator/internal/config"

	"github.com/redis/go-redis/v9"
)

// Client wraps the go-redis client with connection state tracking. The chat
// store and the rate limiter share one instance.
type Client struct {
	client      *redis.Client
	config      config.RedisConfig
	mu          sync.RWMutex
	isConnected bool
	ctx         context.Context
	cancel      context.CancelFunc
}

type HealthStatus struct {
	IsConnected    bool          `json:"isConnected"`
	LastPing       time.Time     `json:"lastPing"`
	ResponseTime   time.Duration `json:"responseTime"`
	ConnectionInfo string        `json:"connectionInfo"`
	Error          string        `json:"error,omitempty"`
}

// NewClient creates a new Redis client with connection pooling
func NewClient(cfg config.RedisConfig) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	client.connect()
	go client.healthCheckLoop()

	return client
}

// connect establishes the Redis connection with configured options
func (c *Client) connect() {
	var opt *redis.Options

	if c.config.URL != "" {
		parsed, err := redis.ParseURL(c.config.URL)
		if err != nil {
			log.Printf("Failed to parse Redis URL: %v, falling back to host:port", err)
			opt = c.hostPortOptions()
		} else {
			opt = parsed
			opt.PoolSize = c.config.PoolSize
			opt.MinIdleConns = c.config.MinIdleConns
			opt.MaxRetries = c.config.MaxRetries
			opt.MinRetryBackoff = c.config.RetryDelay
			opt.DialTimeout = c.config.DialTimeout
			opt.ReadTimeout = c.config.ReadTimeout
			opt.WriteTimeout = c.config.WriteTimeout
			opt.PoolTimeout = c.config.PoolTimeout
		}
	} else {
		opt = c.hostPortOptions()
	}

	c.mu.Lock()
	c.client = redis.NewClient(opt)
	c.mu.Unlock()

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := c.client.Ping(ctx).Err()
	c.mu.Lock()
	c.isConnected = (err == nil)
	c.mu.Unlock()

	if err != nil {
		log.Printf("Redis connection test failed: %v", err)
	} else {
		log.Printf("Redis connected successfully")
	}
}

func (c *Client) hostPortOptions() *redis.Options {
	return &redis.Options{
		Addr:            fmt.Sprintf("%s:%s", c.config.Host, c.config.Port),
		Password:        c.config.Password,
		DB:              c.config.DB,
		PoolSize:        c.config.PoolSize,
		MinIdleConns:    c.config.MinIdleConns,
		MaxRetries:      c.config.MaxRetries,
		MinRetryBackoff: c.config.RetryDelay,
		DialTimeout:     c.config.DialTimeout,
		ReadTimeout:     c.config.ReadTimeout,
		WriteTimeout:    c.config.WriteTimeout,
		PoolTimeout:     c.config.PoolTimeout,
	}
}

// healthCheckLoop pings periodically and updates the connection flag.
func (c *Client) healthCheckLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status := c.HealthCheck()
			c.mu.Lock()
			c.isConnected = status.IsConnected
			c.mu.Unlock()
		case <-c.ctx.Done():
			return
		}
	}
}

// HealthCheck pings Redis and reports connection health
func (c *Client) HealthCheck() HealthStatus {
	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	status := HealthStatus{
		LastPing:       time.Now(),
		ConnectionInfo: fmt.Sprintf("%s:%s", c.config.Host, c.config.Port),
	}

	if client == nil {
		status.Error = "client not initialized"
		return status
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	start := time.Now()
	err := client.Ping(ctx).Err()
	status.ResponseTime = time.Since(start)

	if err != nil {
		status.Error = err.Error()
		return status
	}

	status.IsConnected = true
	return status
}

// IsConnected reports the last observed connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// Raw exposes the underlying go-redis client for stores built on top.
func (c *Client) Raw() *redis.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Close shuts down the health loop and the connection pool.
func (c *Client) Close() error {
	c.cancel()

	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	if client != nil {
		return client.Close()
	}
	return nil
}
