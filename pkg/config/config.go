package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server (ops API)
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Price feed
	PriceFeed PriceFeedConfig

	// Scoring engine
	Scoring ScoringConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// PriceFeedConfig holds upstream quote source configuration
type PriceFeedConfig struct {
	BaseURL   string
	StreamURL string // websocket endpoint, empty disables streaming
	APIKey    string

	RequestsPerSec float64
	Timeout        time.Duration
	MaxRetries     int
	QuoteTTL       time.Duration // staleness horizon for cached quotes
}

// ScoringConfig holds reputation engine configuration
type ScoringConfig struct {
	HalfLifeDays  float64
	MinSampleSize int

	BatchSize      int
	MaxConcurrency int

	// SettlingDelay between a completed score recompute and the
	// chained snapshot job, letting writes converge first.
	SettlingDelay time.Duration

	// Timezone is the market timezone used to key daily snapshots.
	// The nightly jobs run in the small hours, so keying by UTC day
	// instead would shift the snapshot date.
	Timezone *time.Location
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		PriceFeed: PriceFeedConfig{
			BaseURL:        getEnv("PRICEFEED_BASE_URL", "https://api.marketpulse.in"),
			StreamURL:      getEnv("PRICEFEED_STREAM_URL", ""),
			APIKey:         getEnv("PRICEFEED_API_KEY", ""),
			RequestsPerSec: getEnvAsFloat("PRICEFEED_RPS", 8),
			Timeout:        getEnvAsDuration("PRICEFEED_TIMEOUT", "10s"),
			MaxRetries:     getEnvAsInt("PRICEFEED_MAX_RETRIES", 3),
			QuoteTTL:       getEnvAsDuration("PRICEFEED_QUOTE_TTL", "15m"),
		},

		Scoring: ScoringConfig{
			HalfLifeDays:   getEnvAsFloat("SCORING_HALF_LIFE_DAYS", 30),
			MinSampleSize:  getEnvAsInt("SCORING_MIN_SAMPLE_SIZE", 20),
			BatchSize:      getEnvAsInt("SCORING_BATCH_SIZE", 50),
			MaxConcurrency: getEnvAsInt("SCORING_MAX_CONCURRENCY", 8),
			SettlingDelay:  getEnvAsDuration("SCORING_SETTLING_DELAY", "5m"),
			Timezone:       getEnvAsLocation("MARKET_TIMEZONE", "Asia/Kolkata"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scoring.BatchSize <= 0 {
		return fmt.Errorf("SCORING_BATCH_SIZE must be positive")
	}

	if c.Scoring.MaxConcurrency <= 0 {
		return fmt.Errorf("SCORING_MAX_CONCURRENCY must be positive")
	}

	if c.Scoring.HalfLifeDays <= 0 {
		return fmt.Errorf("SCORING_HALF_LIFE_DAYS must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsLocation(key string, defaultValue string) *time.Location {
	name := os.Getenv(key)
	if name == "" {
		name = defaultValue
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		loc, err = time.LoadLocation(defaultValue)
		if err != nil {
			return time.UTC
		}
	}

	return loc
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
