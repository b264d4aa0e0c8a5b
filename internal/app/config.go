package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (INTAKE_ prefix), a .env file, flags, or YAML files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (INTAKE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	TimeZone    string `default:"America/Guatemala" usage:"Time zone for order date and time" flag:"time-zone"`
	Intake      IntakeConfig
	RateLimit   RateLimitConfig
	Graceful    GracefulConfig
}

// IntakeConfig points at the downstream order intake API.
type IntakeConfig struct {
	BaseURL string        `usage:"Intake API base URL; comanda is appended" flag:"intake-url"`
	Key     string        `usage:"Intake API key sent in the Key header" flag:"intake-key"`
	Timeout time.Duration `default:"30s" usage:"Intake request timeout" flag:"intake-timeout"`
}

// RateLimitConfig controls the per-owner token bucket.
type RateLimitConfig struct {
	RPS   float64 `default:"5"  usage:"Sustained requests per second per cart owner"`
	Burst int     `default:"10" usage:"Burst size per cart owner"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads .env (if present), then environment variables and YAML
// files, and applies platform defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "INTAKE",
		Files:     []string{"config.yaml", "/etc/intake/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set INTAKE_DATABASE_URL or DATABASE_URL")
	}
	if c.Intake.BaseURL == "" {
		return errors.New("intake base URL is required: set INTAKE_INTAKE_BASE_URL")
	}
	return nil
}

// Location resolves TimeZone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// applyPlatformDefaults maps platform-provided variables such as DATABASE_URL
// and PORT onto the INTAKE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
