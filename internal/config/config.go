package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the venue ordering system
type Config struct {
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
	Venue    VenueConfig
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// RabbitMQConfig holds RabbitMQ connection configuration. An empty host
// disables the AMQP notification transport.
type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// RedisConfig holds the Redis connection used for presence and membership
// state. An empty addr disables the Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// VenueConfig holds the ordering-policy knobs of the venue
type VenueConfig struct {
	// LocationFreshness is how recent a verified location record must be
	// for the access gate to honor it.
	LocationFreshness time.Duration
	// DeliveryFee is applied to every table session total.
	DeliveryFee float64
	// EventBuffer is the per-subscriber channel capacity of the fan-out hub.
	EventBuffer int
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored for local development but is not required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getenv("DB_HOST", "localhost"),
			User:     getenv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Database: getenv("DB_NAME", "wolfpack"),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     os.Getenv("RABBITMQ_HOST"),
			User:     getenv("RABBITMQ_USER", "guest"),
			Password: getenv("RABBITMQ_PASSWORD", "guest"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
	}

	var err error
	if cfg.Database.Port, err = getenvInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	if cfg.RabbitMQ.Port, err = getenvInt("RABBITMQ_PORT", 5672); err != nil {
		return nil, err
	}
	if cfg.Redis.DB, err = getenvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.Venue.LocationFreshness, err = getenvDuration("LOCATION_FRESHNESS", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Venue.DeliveryFee, err = getenvFloat("DELIVERY_FEE", 0); err != nil {
		return nil, err
	}
	if cfg.Venue.EventBuffer, err = getenvInt("EVENT_BUFFER", 32); err != nil {
		return nil, err
	}
	if cfg.Venue.EventBuffer < 1 {
		return nil, fmt.Errorf("EVENT_BUFFER must be at least 1")
	}
	if cfg.Venue.LocationFreshness <= 0 {
		return nil, fmt.Errorf("LOCATION_FRESHNESS must be positive")
	}
	if cfg.Venue.DeliveryFee < 0 {
		return nil, fmt.Errorf("DELIVERY_FEE must not be negative")
	}

	return cfg, nil
}

// DatabaseURL returns a PostgreSQL connection URL
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Database)
}

// RabbitMQURL returns an AMQP connection URL
func (c *Config) RabbitMQURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		c.RabbitMQ.User, c.RabbitMQ.Password, c.RabbitMQ.Host, c.RabbitMQ.Port)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", key, v)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", key, v)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", key, v)
	}
	return d, nil
}
