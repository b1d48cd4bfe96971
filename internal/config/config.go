// Package config loads migration settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the connection endpoints and runtime switches for a migration run.
// Defaults match the endpoints of a local Sakila development setup.
type Config struct {
	Postgres PostgresConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	NATS     NATSConfig

	// StrictExit makes the one-shot binary exit non-zero when any task or phase failed.
	StrictExit  bool
	ServicePort string
	LogLevel    slog.Level
}

// PostgresConfig defines the connection details of the relational source.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN builds a lib/pq keyword/value connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// RedisConfig defines the KV destination.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MongoConfig defines the document destination.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// NATSConfig defines where completion events are published. An empty URL disables publishing.
type NATSConfig struct {
	URL     string
	Subject string
}

// Enabled reports whether completion events should be published.
func (n NATSConfig) Enabled() bool { return n.URL != "" }

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables, applying defaults for unset keys.
func FromEnv() (*Config, error) {
	pgPort, err := strconv.Atoi(getEnv("PG_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid PG_PORT: %w", err)
	}
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	connectTimeout, err := time.ParseDuration(getEnv("MONGO_CONNECT_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MONGO_CONNECT_TIMEOUT: %w", err)
	}
	strict, err := strconv.ParseBool(getEnv("MIGRATE_STRICT_EXIT", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid MIGRATE_STRICT_EXIT: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Postgres: PostgresConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     pgPort,
			User:     getEnv("PG_USER", "postgres"),
			Password: getEnv("PG_PASSWORD", ""),
			DBName:   getEnv("PG_DBNAME", "sakila_project"),
			SSLMode:  getEnv("PG_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGO_DATABASE", "sakila_nosql"),
			ConnectTimeout: connectTimeout,
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_SUBJECT", "sakila.migration.completed"),
		},
		StrictExit:  strict,
		ServicePort: getEnv("SERVICE_PORT", "8085"),
		LogLevel:    level,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	var missing []string
	if c.Postgres.Host == "" {
		missing = append(missing, "PG_HOST")
	}
	if c.Postgres.DBName == "" {
		missing = append(missing, "PG_DBNAME")
	}
	if c.Redis.Addr == "" {
		missing = append(missing, "REDIS_ADDR")
	}
	if c.Mongo.URI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if c.Mongo.Database == "" {
		missing = append(missing, "MONGO_DATABASE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
		return fmt.Errorf("PG_PORT out of range: %d", c.Postgres.Port)
	}
	if c.Mongo.ConnectTimeout <= 0 {
		return fmt.Errorf("MONGO_CONNECT_TIMEOUT must be positive, got %s", c.Mongo.ConnectTimeout)
	}
	if c.NATS.Enabled() && c.NATS.Subject == "" {
		return fmt.Errorf("NATS_SUBJECT is required when NATS_URL is set")
	}
	return nil
}

// NewLogger returns a text logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}

// getEnv reads an environment variable with a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
