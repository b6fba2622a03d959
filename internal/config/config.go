// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"fintrack-ledger/pkg/cache"
	"fintrack-ledger/pkg/db" // Import db package for its Config struct
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	LogLevel   string
	DB         db.Config
	Redis      cache.Config

	// LedgerStrictWallets rejects balance changes aimed at wallets that
	// do not exist instead of skipping them.
	LedgerStrictWallets bool
	IdempotencyTTL      time.Duration

	RecurringEnabled  bool
	RecurringInterval time.Duration

	Telemetry TelemetryConfig
}

// TelemetryConfig configures trace export. An empty endpoint disables it.
type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

// LoadConfig loads configuration from environment variables.
// Values from a .env file in the working directory are loaded first when
// the file exists; variables already set in the environment win.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	dbPort, err := getInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	autoMigrate, err := getBool("DB_AUTO_MIGRATE", true)
	if err != nil {
		return nil, err
	}
	redisDB, err := getInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	strict, err := getBool("LEDGER_STRICT_WALLETS", false)
	if err != nil {
		return nil, err
	}
	idempotencyTTL, err := getDuration("IDEMPOTENCY_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	recurringEnabled, err := getBool("RECURRING_ENABLED", true)
	if err != nil {
		return nil, err
	}
	recurringInterval, err := getDuration("RECURRING_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	if recurringInterval <= 0 {
		return nil, fmt.Errorf("invalid RECURRING_INTERVAL: must be positive, got %s", recurringInterval)
	}

	return &AppConfig{
		ServerPort: getString("SERVER_PORT", "8080"),
		LogLevel:   getString("LOG_LEVEL", "info"),
		DB: db.Config{
			Host:        getString("DB_HOST", "localhost"), // Default to localhost for local development
			Port:        dbPort,
			User:        getString("DB_USER", "user"),
			Password:    getString("DB_PASSWORD", "password"),
			DBName:      getString("DB_NAME", "ledgerdb"),
			SSLMode:     getString("DB_SSLMODE", "disable"),
			AutoMigrate: autoMigrate,
		},
		Redis: cache.Config{
			Addr:     os.Getenv("REDIS_ADDR"), // Empty disables Redis
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		LedgerStrictWallets: strict,
		IdempotencyTTL:      idempotencyTTL,
		RecurringEnabled:    recurringEnabled,
		RecurringInterval:   recurringInterval,
		Telemetry: TelemetryConfig{
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  getString("OTEL_SERVICE_NAME", "fintrack-ledger"),
		},
	}, nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
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
		return 0, fmt.Errorf("invalid %s: %w", key, err)
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
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
