package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr      string        `mapstructure:"LISTEN_ADDR"`
	Env             string        `mapstructure:"ENV"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	ServerBaseURL   string        `mapstructure:"SERVER_BASE_URL"`
	AuthToken       string        `mapstructure:"AUTH_TOKEN"`
	DeviceID        string        `mapstructure:"DEVICE_ID"`
	DBPath          string        `mapstructure:"DB_PATH"`
	HTTPTimeout     time.Duration `mapstructure:"HTTP_TIMEOUT"`
	ProbeInterval   time.Duration `mapstructure:"PROBE_INTERVAL"`
	SyncMinInterval time.Duration `mapstructure:"SYNC_MIN_INTERVAL"`
	BodyLimit       string        `mapstructure:"BODY_LIMIT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("LISTEN_ADDR", "127.0.0.1:7768")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_PATH", "clinsync.db")
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("PROBE_INTERVAL", "10s")
	v.SetDefault("SYNC_MIN_INTERVAL", "30s")
	v.SetDefault("BODY_LIMIT", "1M")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("LISTEN_ADDR")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("SERVER_BASE_URL")
	v.BindEnv("AUTH_TOKEN")
	v.BindEnv("DEVICE_ID")
	v.BindEnv("DB_PATH")
	v.BindEnv("HTTP_TIMEOUT")
	v.BindEnv("PROBE_INTERVAL")
	v.BindEnv("SYNC_MIN_INTERVAL")
	v.BindEnv("BODY_LIMIT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.ServerBaseURL == "" {
		return nil, fmt.Errorf("SERVER_BASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the agent is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run with. The backend
// base URL must be a well-formed absolute URL because every remote client
// and the connectivity probe derive their endpoints from it.
func (c *Config) Validate() error {
	if c.ServerBaseURL == "" {
		return fmt.Errorf("SERVER_BASE_URL is required")
	}
	u, err := url.Parse(c.ServerBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SERVER_BASE_URL must be an absolute URL, got %q", c.ServerBaseURL)
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("ENV must be \"development\" or \"production\", got %q", c.Env)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.ProbeInterval <= 0 {
		return fmt.Errorf("PROBE_INTERVAL must be positive, got %s", c.ProbeInterval)
	}
	if c.SyncMinInterval <= 0 {
		return fmt.Errorf("SYNC_MIN_INTERVAL must be positive, got %s", c.SyncMinInterval)
	}
	return nil
}

// HealthURL returns the backend endpoint the connectivity probe polls.
func (c *Config) HealthURL() string {
	return strings.TrimRight(c.ServerBaseURL, "/") + "/healthz"
}
