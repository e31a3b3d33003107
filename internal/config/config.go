package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	APIBaseURL         string
	AccessToken        string
	JWTSecret          string
	RedisURL           string
	Environment        string
	LogLevel           string
	ReturnAddr         string
	ReturnBaseURL      string
	SignupPayURL       string
	PostUUID           string
	PageSize           int
	RequestTimeout     time.Duration
	ValidationDebounce time.Duration
	CardFeeBps         int64
	FinalizeGuardTTL   time.Duration
	BundleBalance      int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:         strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/"),
		AccessToken:        getEnv("ACCESS_TOKEN", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		Environment:        getEnv("ENVIRONMENT", "production"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ReturnAddr:         getEnv("RETURN_ADDR", ":8090"),
		ReturnBaseURL:      getEnv("RETURN_BASE_URL", "http://localhost:8090/payment/return"),
		SignupPayURL:       getEnv("SIGNUP_PAY_URL", "http://localhost:8080/signup-and-pay"),
		PostUUID:           getEnv("POST_UUID", ""),
		PageSize:           getIntEnv("PAGE_SIZE", 20),
		RequestTimeout:     getDurationEnv("REQUEST_TIMEOUT", 10*time.Second),
		ValidationDebounce: getDurationEnv("VALIDATION_DEBOUNCE", 300*time.Millisecond),
		CardFeeBps:         int64(getIntEnv("CARD_FEE_BPS", 0)),
		FinalizeGuardTTL:   getDurationEnv("FINALIZE_GUARD_TTL", 24*time.Hour),
		BundleBalance:      getIntEnv("BUNDLE_BALANCE", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would make the engine misbehave
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.CardFeeBps < 0 || c.CardFeeBps > 10000 {
		return fmt.Errorf("CARD_FEE_BPS must be between 0 and 10000, got %d", c.CardFeeBps)
	}
	if c.BundleBalance < 0 {
		return fmt.Errorf("BUNDLE_BALANCE must not be negative, got %d", c.BundleBalance)
	}
	return nil
}

// IsProduction reports whether the engine runs against production data
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv accepts Go durations ("500ms") or plain seconds ("10")
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
