package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	MongoURI        string
	JWTSecret       string
	JWTExpiry       string
	AllowedOrigins  []string
	BootstrapAdmins []string
	SeedPassword    string
	FCMServerKey    string
	FCMEndpoint     string
	Redis           RedisConfig
}

type RedisConfig struct {
	URL          string
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	RetryDelay   time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
}

func Load() *Config {
	// load .env variable
	err := godotenv.Load()
	if err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		log.Fatal("MONGO_URI environment variable is not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173"
	}

	fcmEndpoint := os.Getenv("FCM_ENDPOINT")
	if fcmEndpoint == "" {
		fcmEndpoint = "https://fcm.googleapis.com/fcm/send"
	}

	return &Config{
		Port:            port,
		MongoURI:        mongoURI,
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTExpiry:       os.Getenv("JWT_EXPIRY"),
		AllowedOrigins:  splitList(allowedOrigins),
		BootstrapAdmins: splitList(os.Getenv("BOOTSTRAP_ADMIN_EMAILS")),
		SeedPassword:    os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		FCMServerKey:    os.Getenv("FCM_SERVER_KEY"),
		FCMEndpoint:     fcmEndpoint,
		Redis:           loadRedisConfig(),
	}
}

func loadRedisConfig() RedisConfig {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}

	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	return RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		Host:         host,
		Port:         port,
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           envInt("REDIS_DB", 0),
		PoolSize:     envInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
		MaxRetries:   envInt("REDIS_MAX_RETRIES", 3),
		RetryDelay:   500 * time.Millisecond,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	}
}

func envInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// IsBootstrapAdmin reports whether the email belongs to the configured
// bootstrap administrator allow-list.
func (c *Config) IsBootstrapAdmin(email string) bool {
	for _, admin := range c.BootstrapAdmins {
		if strings.EqualFold(admin, email) {
			return true
		}
	}
	return false
}
