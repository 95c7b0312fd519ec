// Package config reads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends understood by storage.Open.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	HTTPAddr string

	StoreBackend  string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel       string
	LogDevelopment bool

	Currency string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		HTTPAddr:     ":8080",
		StoreBackend: BackendMemory,
		RedisAddr:    "localhost:6379",
		SessionTTL:   24 * time.Hour,
		KafkaTopic:   "transaction_completed",
		LogLevel:     "info",
		Currency:     "PLN",
	}
}

// Load reads envFiles (missing files are ignored) and then the process
// environment. Variables already set in the environment win over the files.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Default()
	cfg.HTTPAddr = getString("HTTP_ADDR", cfg.HTTPAddr)
	cfg.StoreBackend = strings.ToLower(getString("STORE_BACKEND", cfg.StoreBackend))
	cfg.DatabaseURL = getString("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisAddr = getString("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getString("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.KafkaTopic = getString("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.LogLevel = getString("LOG_LEVEL", cfg.LogLevel)
	cfg.Currency = getString("CURRENCY", cfg.Currency)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitList(v)
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", cfg.RedisDB); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", cfg.SessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.LogDevelopment, err = getBool("LOG_DEVELOPMENT", cfg.LogDevelopment); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis store")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}

	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	return nil
}

func getString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return dur, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
