package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const devJWTSecret = "dev-secret-change-me"

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig
	HTTP     HTTPConfig
	GRPC     GRPCConfig
	Auth     AuthConfig
	Log      LogConfig
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string `env:"DB_PATH" envDefault:"auth.db"` // SQLite database file path
}

// HTTPConfig contains REST server settings.
type HTTPConfig struct {
	Address string `env:"HTTP_ADDRESS" envDefault:":8080"`
}

// GRPCConfig contains gRPC server settings.
type GRPCConfig struct {
	Address string `env:"GRPC_ADDRESS" envDefault:":50051"`
}

// AuthConfig contains credential and token settings.
type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"user-auth-service"`
	TokenTTL   time.Duration `env:"JWT_EXPIRATION" envDefault:"24h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Load reads configuration from the environment. JWT_SECRET is required.
func Load() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but falls back to a development JWT secret.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = devJWTSecret
	}
	return cfg, nil
}

func parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Auth.TokenTTL <= 0 {
		return nil, fmt.Errorf("JWT_EXPIRATION must be positive, got %s", cfg.Auth.TokenTTL)
	}
	return cfg, nil
}

// UsesDevSecret reports whether the development JWT secret is in effect.
func (c *Config) UsesDevSecret() bool {
	return c.Auth.JWTSecret == devJWTSecret
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s, HTTP: %s, gRPC: %s, Auth: {issuer: %s, ttl: %s, secret: *** (masked) ***}, Log: %s}",
		c.Database.Path, c.HTTP.Address, c.GRPC.Address, c.Auth.Issuer, c.Auth.TokenTTL, c.Log.Level)
}
