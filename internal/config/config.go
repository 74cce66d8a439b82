package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the catalog sync service
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// Redis dictionary cache; empty disables caching
	RedisURL string

	// Master key for sealing marketplace API tokens at rest
	TokenMasterKey string

	// Sync Settings
	SyncBatchSize int
	SyncTimeout   time.Duration

	// Scheduled runs; empty disables the scheduler
	ExportCron string
	ImportCron string

	// Rate Limiting
	DefaultRateLimit int // requests per second

	// CORS
	AllowedOrigins []string
}

// Load loads configuration from environment variables
func Load() *Config {
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL == "" {
		dbHost := getEnv("DB_HOST", "localhost")
		dbPort := getEnv("DB_PORT", "5432")
		dbUser := getEnv("DB_USER", "postgres")
		dbPassword := getEnv("DB_PASSWORD", "postgres")
		dbName := getEnv("DB_NAME", "catalog_sync")
		dbSSLMode := getEnv("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbUser, dbPassword, dbHost, dbPort, dbName, dbSSLMode)
	}

	config := &Config{
		Port:        getEnv("PORT", "8099"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: databaseURL,

		RedisURL:       getEnv("REDIS_URL", ""),
		TokenMasterKey: getEnv("TOKEN_MASTER_KEY", ""),

		SyncBatchSize: getEnvAsInt("SYNC_BATCH_SIZE", 100),
		SyncTimeout:   getEnvAsDuration("SYNC_TIMEOUT", 30*time.Minute),

		ExportCron: getEnv("EXPORT_CRON", ""),
		ImportCron: getEnv("IMPORT_CRON", "0 */6 * * *"),

		DefaultRateLimit: getEnvAsInt("DEFAULT_RATE_LIMIT", 10),

		AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "https://*.tesseract.dev")},
	}

	if config.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if config.TokenMasterKey == "" {
		log.Fatal("TOKEN_MASTER_KEY is required")
	}

	return config
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
