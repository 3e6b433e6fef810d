package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/orma-app/orma/internal/localstate"
)

// Environment represents different deployment environments.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the marks service.
// Environment variables are parsed from the ORMA_ prefix,
// e.g. ORMA_HTTP_PORT, ORMA_POSTGRES_DSN.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage. DBDriver "auto" resolves to postgres when a DSN is set,
	// otherwise sqlite.
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`

	// Quota policy pushed to clients. The server never enforces it on
	// writes; it only serves the advisory numbers.
	QuotaMax    int           `envconfig:"QUOTA_MAX" default:"3"`
	QuotaWindow time.Duration `envconfig:"QUOTA_WINDOW" default:"24h"`

	// Display jitter bound in meters, advertised to clients.
	JitterMeters float64 `envconfig:"JITTER_METERS" default:"10"`

	// Suggested poll interval for clients without a live connection.
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`

	// DevMode enables the static dev token in the authorizer.
	DevMode bool `envconfig:"DEV_MODE" default:"false"`

	// AuthTokens maps pre-shared bearer tokens to display names,
	// e.g. ORMA_AUTH_TOKENS="tok1:alice,tok2:bob". Ignored in dev mode.
	AuthTokens map[string]string `envconfig:"AUTH_TOKENS"`
}

// ResolveDefaults validates DBDriver and derives it when set to "auto".
func (c *Config) ResolveDefaults() error {
	if c.DBDriver == "" || c.DBDriver == "auto" {
		if c.PostgresDSN != "" {
			c.DBDriver = "postgres"
		} else {
			c.DBDriver = "sqlite"
		}
	}
	switch c.DBDriver {
	case "postgres":
	case "sqlite":
		if c.SQLitePath == "" {
			path, err := localstate.DefaultDBPath()
			if err != nil {
				return fmt.Errorf("resolve sqlite path: %w", err)
			}
			c.SQLitePath = path
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.QuotaMax < 1 {
		return fmt.Errorf("QUOTA_MAX must be >= 1, got %d", c.QuotaMax)
	}
	if c.QuotaWindow <= 0 {
		return fmt.Errorf("QUOTA_WINDOW must be > 0, got %s", c.QuotaWindow)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("ORMA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewForTesting creates a config specifically for testing: sqlite in a
// temp path, dev mode on.
func NewForTesting() *Config {
	cfg := &Config{
		Environment:  EnvTesting,
		HTTPPort:     8080,
		DBDriver:     "sqlite",
		SQLitePath:   ":memory:",
		QuotaMax:     3,
		QuotaWindow:  24 * time.Hour,
		JitterMeters: 10,
		PollInterval: time.Second,
		DevMode:      true,
	}
	return cfg
}

// IsTesting returns true if the environment is set to testing.
func (c *Config) IsTesting() bool { return c.Environment == EnvTesting }

// IsProduction returns true if the environment is set to production.
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }
