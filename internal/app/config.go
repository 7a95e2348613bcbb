package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/econstore/internal/storage/postgres"
)

const defaultAddr = "0.0.0.0:8080"

var defaultConfigFiles = []string{"config.yaml", "/etc/econstore/config.yaml"}

// Config holds the complete application configuration, loadable from
// environment variables (ECONSTORE_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	ImageBaseURL string `default:"" usage:"Base URL prepended to relative product image paths" flag:"image-base-url"`
	Database     DatabaseConfig
	Orders       OrdersConfig
	RateLimit    RateLimitConfig
	Health       HealthConfig
	Graceful     GracefulConfig
}

// DatabaseConfig controls the PostgreSQL pool and order transactions.
type DatabaseConfig struct {
	URL            string        `usage:"PostgreSQL connection URL (ECONSTORE_DATABASE_URL or DATABASE_URL)"`
	MaxConns       int32         `default:"10" usage:"Maximum pool size"`
	MinConns       int32         `default:"0" usage:"Connections kept open while idle"`
	AcquireTimeout time.Duration `default:"5s" usage:"Maximum wait for a free connection when placing an order"`
	IsolationLevel string        `default:"read committed" usage:"Isolation level of order transactions"`
	TxTimeout      time.Duration `default:"10s" usage:"Upper bound for one order transaction"`
}

// OrdersConfig controls the order listing.
type OrdersConfig struct {
	BatchItems bool `default:"false" usage:"Load the items of all listed orders in one query"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Enabled bool          `default:"true" usage:"Enable per-client rate limiting"`
	Max     int           `default:"100" usage:"Max requests per window"`
	Window  time.Duration `default:"1m" usage:"Rate limit window duration"`
}

// HealthConfig controls background probes.
type HealthConfig struct {
	Interval      time.Duration `default:"10s" usage:"Probe interval"`
	MaxGoroutines int           `default:"10000" usage:"Liveness fails above this goroutine count"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s" usage:"Delay after readiness=false before shutdown"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration"`
}

// LoadConfig loads configuration from environment variables, flags and YAML
// config files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(defaultConfigFiles, false)
}

func loadConfig(files []string, skipFlags bool) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ECONSTORE",
		SkipFlags: skipFlags,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided DATABASE_URL and PORT onto
// the ECONSTORE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Database.URL == "" {
		c.Database.URL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return errors.New("database URL is required: set ECONSTORE_DATABASE_URL or DATABASE_URL")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return errors.Errorf("database min conns %d exceeds max conns %d", c.Database.MinConns, c.Database.MaxConns)
	}
	if _, err := postgres.ParseIsolationLevel(c.Database.IsolationLevel); err != nil {
		return errors.Wrap(err, "database isolation level")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("rate limit max and window must be positive")
	}
	return nil
}
