// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
	DriverJSON   = "json"
)

// Config holds every setting of the server.
type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// StoreDriver selects the persistence backend: sqlite, badger or json.
	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`

	// DBPath is the sqlite file, the badger directory or the json file.
	DBPath string `env:"DB_PATH" envDefault:"./data/wichtel.db"`

	// AdminUsername may manage every group.
	AdminUsername string `env:"ADMIN_USERNAME,required,notEmpty"`

	// GatewaySecret signs gateway tokens. Empty disables authentication.
	GatewaySecret string `env:"GATEWAY_SECRET"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Assign AssignConfig `envPrefix:"ASSIGN_"`
	Notify NotifyConfig `envPrefix:"NOTIFY_"`

	// PendingTimeout is how long a prompt waits for the user's answer.
	PendingTimeout time.Duration `env:"PENDING_TIMEOUT" envDefault:"5m"`
}

// AssignConfig tunes the assignment engine.
type AssignConfig struct {
	MaxAttempts  int           `env:"MAX_ATTEMPTS" envDefault:"10000"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"2s"`
	ForbidMutual bool          `env:"FORBID_MUTUAL" envDefault:"false"`
}

// NotifyConfig configures delivery of the private reveals.
type NotifyConfig struct {
	// WebhookURL receives reveals directly. When empty they are returned to
	// the gateway in the RPC response.
	WebhookURL  string        `env:"WEBHOOK_URL"`
	Concurrency int           `env:"CONCURRENCY" envDefault:"4"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file from the working directory, then parses
// the environment. Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the struct tags cannot express.
func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverSQLite, DriverBadger, DriverJSON:
	default:
		return fmt.Errorf("STORE_DRIVER: unknown driver %q", c.StoreDriver)
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if c.Assign.MaxAttempts <= 0 {
		return fmt.Errorf("ASSIGN_MAX_ATTEMPTS must be positive, got %d", c.Assign.MaxAttempts)
	}
	if c.Assign.Timeout <= 0 {
		return fmt.Errorf("ASSIGN_TIMEOUT must be positive, got %s", c.Assign.Timeout)
	}
	if c.Notify.Concurrency <= 0 {
		return fmt.Errorf("NOTIFY_CONCURRENCY must be positive, got %d", c.Notify.Concurrency)
	}
	if c.PendingTimeout <= 0 {
		return fmt.Errorf("PENDING_TIMEOUT must be positive, got %s", c.PendingTimeout)
	}
	return nil
}
