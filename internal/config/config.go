package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Proxy    ProxyConfig
	Batch    BatchConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type ProxyConfig struct {
	URL          string
	HeadersURL   string
	APIKey       string
	Country      string
	Timeout      time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	RateLimitMin time.Duration
	RateLimitMax time.Duration
}

type BatchConfig struct {
	GroupSize int
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxConns int32
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Proxy: ProxyConfig{
			URL:          getEnvOrDefault("PROXY_URL", "https://proxy.scrapeops.io/v1/"),
			HeadersURL:   getEnvOrDefault("PROXY_HEADERS_URL", "https://headers.scrapeops.io/v1/browser-headers"),
			APIKey:       os.Getenv("PROXY_API_KEY"),
			Country:      getEnvOrDefault("PROXY_COUNTRY", "us"),
			Timeout:      getDurationOrDefault("PROXY_TIMEOUT", 90*time.Second),
			MaxRetries:   getIntOrDefault("PROXY_MAX_RETRIES", 3),
			RetryDelay:   getDurationOrDefault("PROXY_RETRY_DELAY", 5*time.Second),
			RateLimitMin: getDurationOrDefault("PROXY_RATE_LIMIT_MIN", 1*time.Second),
			RateLimitMax: getDurationOrDefault("PROXY_RATE_LIMIT_MAX", 3*time.Second),
		},
		Batch: BatchConfig{
			GroupSize: getIntOrDefault("BATCH_GROUP_SIZE", 1),
		},
		Redis: RedisConfig{
			Enabled:  getBoolOrDefault("REDIS_ENABLED", false),
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getIntOrDefault("REDIS_DB", 0),
			CacheTTL: getDurationOrDefault("REDIS_CACHE_TTL", 24*time.Hour),
		},
		Database: DatabaseConfig{
			Enabled:  getBoolOrDefault("DB_ENABLED", false),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   getEnvOrDefault("DB_NAME", "amazon_product_export"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 10)),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Batch.GroupSize < 1 {
		return fmt.Errorf("BATCH_GROUP_SIZE must be at least 1")
	}

	if c.Proxy.URL == "" {
		return fmt.Errorf("PROXY_URL must not be empty")
	}

	if c.Proxy.RateLimitMin > c.Proxy.RateLimitMax {
		return fmt.Errorf("PROXY_RATE_LIMIT_MIN cannot be greater than PROXY_RATE_LIMIT_MAX")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
