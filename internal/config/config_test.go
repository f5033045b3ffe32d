package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HTTP_ADDR", "LOG_LEVEL", "JWT_SECRET", "JWT_ISS", "JWT_AUD", "JWT_EXPIRY", "ENVIRONMENT"} {
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected default HTTP_ADDR, got %s", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LOG_LEVEL, got %s", cfg.LogLevel)
	}
	if cfg.JWTSecret != "your-secret-key-change-in-production" {
		t.Errorf("Expected default JWT_SECRET, got %s", cfg.JWTSecret)
	}
	if cfg.JWTIssuer != "asset-lifecycle-api" {
		t.Errorf("Expected default JWT_ISS, got %s", cfg.JWTIssuer)
	}
	if cfg.JWTAudience != "asset-lifecycle-api" {
		t.Errorf("Expected default JWT_AUD, got %s", cfg.JWTAudience)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Errorf("Expected default JWT_EXPIRY, got %v", cfg.JWTExpiry)
	}
}

func TestLoadWithEnvironment(t *testing.T) {
	clearEnv(t)
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_SECRET", "test-secret-key")
	os.Setenv("JWT_ISS", "test-issuer")
	os.Setenv("JWT_AUD", "test-audience")
	os.Setenv("JWT_EXPIRY", "2h")
	defer clearEnv(t)

	cfg := Load()

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("Expected HTTP_ADDR from env, got %s", cfg.HTTPAddr)
	}
	if cfg.JWTSecret != "test-secret-key" {
		t.Errorf("Expected JWT_SECRET from env, got %s", cfg.JWTSecret)
	}
	if cfg.JWTIssuer != "test-issuer" {
		t.Errorf("Expected JWT_ISS from env, got %s", cfg.JWTIssuer)
	}
	if cfg.JWTAudience != "test-audience" {
		t.Errorf("Expected JWT_AUD from env, got %s", cfg.JWTAudience)
	}
	if cfg.JWTExpiry != 2*time.Hour {
		t.Errorf("Expected JWT_EXPIRY from env, got %v", cfg.JWTExpiry)
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	valid := Config{
		JWTSecret:   "valid-secret-that-is-long-enough-for-testing",
		JWTIssuer:   "test-issuer",
		JWTAudience: "test-audience",
		JWTExpiry:   time.Hour,
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"empty secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"secret too short", func(c *Config) { c.JWTSecret = "short" }, true},
		{"empty issuer", func(c *Config) { c.JWTIssuer = "" }, true},
		{"empty audience", func(c *Config) { c.JWTAudience = "" }, true},
		{"negative expiry", func(c *Config) { c.JWTExpiry = -time.Hour }, true},
		{"zero expiry", func(c *Config) { c.JWTExpiry = 0 }, true},
		{"expiry too short", func(c *Config) { c.JWTExpiry = 30 * time.Second }, true},
		{"expiry too long", func(c *Config) { c.JWTExpiry = 31 * 24 * time.Hour }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.expectError {
				t.Errorf("Validate() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

func TestLoadAndValidate(t *testing.T) {
	clearEnv(t)
	os.Setenv("JWT_SECRET", "test-secret-key-that-is-long-enough-for-testing")
	os.Setenv("JWT_EXPIRY", "1h")
	defer clearEnv(t)

	cfg, err := LoadAndValidate()
	if err != nil {
		t.Errorf("LoadAndValidate() failed with valid config: %v", err)
	}
	if cfg == nil {
		t.Error("LoadAndValidate() returned nil config with valid config")
	}

	os.Setenv("JWT_SECRET", "short")

	if _, err := LoadAndValidate(); err == nil {
		t.Error("LoadAndValidate() should fail with invalid config")
	}
}

func TestProductionSecretValidation(t *testing.T) {
	clearEnv(t)
	os.Setenv("ENVIRONMENT", "production")
	os.Setenv("JWT_SECRET", "your-secret-key-change-in-production")
	defer clearEnv(t)

	cfg := Load()
	if err := cfg.Validate(); err == nil {
		t.Error("Production validation should fail with default secret")
	}

	os.Setenv("JWT_SECRET", "proper-production-secret-that-is-long-enough")

	cfg = Load()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Production validation should pass with proper secret: %v", err)
	}
}
