package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

type Config struct {
	HTTPAddr    string
	LogLevel    string
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTExpiry   time.Duration
}

func Load() *Config {
	config := &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTIssuer:   getEnv("JWT_ISS", "asset-lifecycle-api"),
		JWTAudience: getEnv("JWT_AUD", "asset-lifecycle-api"),
		JWTExpiry:   24 * time.Hour, // Default to 24 hours
	}

	// Parse JWT expiry from environment if provided
	if expiryStr := os.Getenv("JWT_EXPIRY"); expiryStr != "" {
		if expiry, err := time.ParseDuration(expiryStr); err == nil {
			config.JWTExpiry = expiry
		}
	}

	return config
}

// Validate checks the configuration for values that would be unsafe or
// unusable at runtime.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if os.Getenv("ENVIRONMENT") == "production" && c.JWTSecret == "your-secret-key-change-in-production" {
		return errors.New("JWT_SECRET must be changed from the default in production")
	}
	if c.JWTIssuer == "" {
		return errors.New("JWT_ISS must not be empty")
	}
	if c.JWTAudience == "" {
		return errors.New("JWT_AUD must not be empty")
	}
	if c.JWTExpiry < time.Minute {
		return fmt.Errorf("JWT_EXPIRY %v is too short (minimum 1m)", c.JWTExpiry)
	}
	if c.JWTExpiry > 30*24*time.Hour {
		return fmt.Errorf("JWT_EXPIRY %v is too long (maximum 720h)", c.JWTExpiry)
	}
	return nil
}

// LoadAndValidate loads the configuration and fails fast on bad values.
func LoadAndValidate() (*Config, error) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
