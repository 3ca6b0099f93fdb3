// Package config loads service configuration.
//
// Layering: built-in defaults < optional checkin.yaml < environment variables
// with the CHECKIN_ prefix (CHECKIN_DATABASE_URL overrides database.url).
// A .env file in the working directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Credential CredentialConfig `mapstructure:"credential"`
	Refresh    RefreshConfig    `mapstructure:"refresh"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	PublicURL   string   `mapstructure:"public_url"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type AuthConfig struct {
	// JWTSecret verifies HS256 bearer tokens from the identity provider.
	JWTSecret   string   `mapstructure:"jwt_secret"`
	AdminEmails []string `mapstructure:"admin_emails"`
}

type CredentialConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	EnforceExpiry bool          `mapstructure:"enforce_expiry"`
}

type RefreshConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	EventIDs []int64       `mapstructure:"event_ids"`
}

type LoggingConfig struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

// Load reads configuration. configPath may be empty, in which case
// ./checkin.yaml is used when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env file not found, using process environment")
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("checkin")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CHECKIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// plain DATABASE_URL and PORT are honoured when the prefixed names are absent
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && os.Getenv("CHECKIN_SERVER_PORT") == "" {
		cfg.Server.Port = port
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.public_url", "http://localhost:3000")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.admin_emails", []string{})

	v.SetDefault("credential.ttl", 24*time.Hour)
	v.SetDefault("credential.enforce_expiry", true)

	v.SetDefault("refresh.interval", time.Minute)
	v.SetDefault("refresh.event_ids", []int64{})

	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.level", "info")
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Credential.TTL <= 0 {
		return fmt.Errorf("credential.ttl must be positive, got %s", c.Credential.TTL)
	}
	if len(c.Refresh.EventIDs) > 0 && c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be positive, got %s", c.Refresh.Interval)
	}
	return nil
}

// ValidateServer adds the checks only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required to serve requests")
	}
	if c.Server.PublicURL == "" {
		return errors.New("server.public_url is required")
	}
	return nil
}

// IsAdmin reports whether email is on the admin allowlist (case-insensitive).
func (a *AuthConfig) IsAdmin(email string) bool {
	if email == "" {
		return false
	}
	for _, admin := range a.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(admin), email) {
			return true
		}
	}
	return false
}
