// Package common provides shared utilities for Warden
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// devJWTSecret is the development fallback signing secret. Production
// startup is refused while it is still in effect.
const devJWTSecret = "dev-jwt-secret-change-in-production"

// Config holds all configuration for Warden
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Auth        AuthConfig    `toml:"auth"`
	Seed        SeedConfig    `toml:"seed"`
	RateLimit   RateConfig    `toml:"rate_limit"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the directory backend.
type StorageConfig struct {
	Driver    string `toml:"driver"` // "badger" (default) or "surreal"
	Path      string `toml:"path"`   // badger data directory
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// AuthConfig holds token signing and secret hashing configuration.
type AuthConfig struct {
	JWTSecret          string        `toml:"jwt_secret"`
	Issuer             string        `toml:"issuer"`
	Audience           string        `toml:"audience"`
	TokenExpiry        string        `toml:"token_expiry"` // duration string, default "1h"
	EnableRegistration bool          `toml:"enable_registration"`
	Hashing            HashingConfig `toml:"hashing"`
}

// HashingConfig holds Argon2id cost parameters. Zero values fall back to
// the hasher defaults.
type HashingConfig struct {
	MemoryKB    uint32 `toml:"memory_kb"`
	Iterations  uint32 `toml:"iterations"`
	Parallelism uint8  `toml:"parallelism"`
	SaltLength  uint32 `toml:"salt_length"`
	KeyLength   uint32 `toml:"key_length"`
}

// SeedConfig points at the optional directory seed file.
type SeedConfig struct {
	Path string `toml:"path"`
}

// RateConfig throttles credential-bearing endpoints per client IP.
type RateConfig struct {
	RequestsPerSecond int `toml:"requests_per_second"`
	Burst             int `toml:"burst"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// GetTokenExpiry parses and returns the default token expiry duration,
// used when a client record carries no expiration of its own.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return time.Hour
	}
	return d
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Driver:    "badger",
			Path:      "data/directory",
			Namespace: "warden",
			Database:  "directory",
		},
		Auth: AuthConfig{
			JWTSecret:   devJWTSecret,
			Issuer:      "warden-server",
			Audience:    "warden-api",
			TokenExpiry: "1h",
		},
		RateLimit: RateConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("WARDEN_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("WARDEN_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("WARDEN_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("WARDEN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if driver := os.Getenv("WARDEN_STORAGE_DRIVER"); driver != "" {
		config.Storage.Driver = driver
	}
	if path := os.Getenv("WARDEN_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}
	if addr := os.Getenv("WARDEN_STORAGE_ADDRESS"); addr != "" {
		config.Storage.Address = addr
	}

	if v := os.Getenv("WARDEN_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("WARDEN_AUTH_ISSUER"); v != "" {
		config.Auth.Issuer = v
	}
	if v := os.Getenv("WARDEN_AUTH_AUDIENCE"); v != "" {
		config.Auth.Audience = v
	}
	if v := os.Getenv("WARDEN_AUTH_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}
	if v := os.Getenv("WARDEN_SEED_PATH"); v != "" {
		config.Seed.Path = v
	}
}

// Validate rejects configurations that must not reach a running server.
// A missing signing secret, or the development default in production, is a
// construction-time hard failure rather than a request-time one.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	if c.IsProduction() && c.Auth.JWTSecret == devJWTSecret {
		return fmt.Errorf("auth.jwt_secret is the development default; set a real secret for production")
	}
	if c.Auth.Issuer == "" {
		return fmt.Errorf("auth.issuer must not be empty")
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
