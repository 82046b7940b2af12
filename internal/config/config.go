package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config represents the full application configuration surface.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	AMQP        AMQPConfig
	Idempotency IdempotencyConfig
	LogLevel    string
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL      string
	MaxConns int32
}

// RedisConfig configures the product listing cache. An empty URL disables the cache.
type RedisConfig struct {
	URL        string
	ProductTTL time.Duration
}

// AMQPConfig configures order event publishing. An empty URL disables events.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// IdempotencyConfig controls how long quotation idempotency keys are kept.
type IdempotencyConfig struct {
	TTL       time.Duration
	PurgeCron string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	maxConns, err := getenvInt32("DATABASE_MAX_CONNS", 0)
	if err != nil {
		return nil, err
	}
	productTTL, err := getenvDuration("PRODUCT_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	idempotencyTTL, err := getenvDuration("IDEMPOTENCY_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getenvWithDefault("APP_PORT", "8080"),
			AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			MaxConns: maxConns,
		},
		Redis: RedisConfig{
			URL:        os.Getenv("REDIS_URL"),
			ProductTTL: productTTL,
		},
		AMQP: AMQPConfig{
			URL:      os.Getenv("AMQP_URL"),
			Exchange: getenvWithDefault("AMQP_EXCHANGE", "sales_orders"),
		},
		Idempotency: IdempotencyConfig{
			TTL:       idempotencyTTL,
			PurgeCron: getenvWithDefault("IDEMPOTENCY_PURGE_CRON", "0 3 * * *"),
		},
		LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL must be provided")
	}
	if c.Database.MaxConns < 0 {
		return errors.New("DATABASE_MAX_CONNS must not be negative")
	}
	if c.Redis.URL != "" && c.Redis.ProductTTL <= 0 {
		return errors.New("PRODUCT_CACHE_TTL must be positive when REDIS_URL is set")
	}
	if c.AMQP.URL != "" && c.AMQP.Exchange == "" {
		return errors.New("AMQP_EXCHANGE must not be empty when AMQP_URL is set")
	}
	if c.Idempotency.TTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be positive")
	}
	if _, err := cron.ParseStandard(c.Idempotency.PurgeCron); err != nil {
		return fmt.Errorf("IDEMPOTENCY_PURGE_CRON is invalid: %w", err)
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

// getenvInt32 rejects values outside the int32 range instead of wrapping them.
func getenvInt32(key string, fallback int32) (int32, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s must be a 32-bit integer: %w", key, err)
	}
	return int32(n), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
