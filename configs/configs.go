// Package configs handles environment based configuration for the whole
// application.
package configs

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "BCI_SHELL_"

type Config struct {
	// -- Server

	Host                 string        `env:"HOST"`
	Port                 int           `env:"PORT" envDefault:"3000"`
	ServerRequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"60s"`

	// -- Database

	DatabaseDSN  string `env:"DATABASE_DSN" envDefault:"shell.db"`
	DatabaseType string `env:"DATABASE_TYPE" envDefault:"sqlite"`

	// -- Platform

	// PlatformVersion is the release version apps are compiled against.
	// Bundles with a different target are rejected, unless this is "Dev".
	PlatformVersion string `env:"PLATFORM_VERSION" envDefault:"Dev"`

	// AppsDir is where installed app bundles are extracted.
	AppsDir string `env:"APPS_DIR" envDefault:"apps"`

	// AccountsDir holds per-account data directories.
	AccountsDir string `env:"ACCOUNTS_DIR" envDefault:"accounts"`

	// InstallBaseDir is the base directory used to resolve the default
	// path of bundled app executables. It is injected here instead of
	// being derived from the location of the running binary.
	InstallBaseDir string `env:"INSTALL_BASE_DIR" envDefault:"."`

	// -- Market API

	MarketAPIURL         string        `env:"MARKET_API_URL" envDefault:"http://localhost/api"`
	MarketRequestTimeout time.Duration `env:"MARKET_REQUEST_TIMEOUT" envDefault:"10s"`
	MarketMaxRequestRate int           `env:"MARKET_MAX_REQUEST_RATE" envDefault:"5"`

	// -- Jobs

	WorkerQueueCapacity      uint          `env:"WORKER_QUEUE_CAPACITY" envDefault:"1000"`
	WorkerCount              uint          `env:"WORKER_COUNT" envDefault:"10"`
	MaxJobErrorCount         int           `env:"MAX_JOB_ERROR_COUNT" envDefault:"10"`
	DBJobPollInterval        time.Duration `env:"DB_JOB_POLL_INTERVAL" envDefault:"30s"`
	AcceptedGracePeriod      time.Duration `env:"ACCEPTED_GRACE_PERIOD" envDefault:"180s"`
	ReSchedulableGracePeriod time.Duration `env:"RESCHEDULABLE_GRACE_PERIOD" envDefault:"60s"`
	JobStatusWebhookUrl      string        `env:"JOB_STATUS_WEBHOOK" envDefault:""`
	JobStatusWebhookTimeout  time.Duration `env:"JOB_STATUS_WEBHOOK_TIMEOUT" envDefault:"30s"`

	// -- System

	PauseDuration time.Duration `env:"PAUSE_DURATION" envDefault:"5m"`

	// -- Middleware

	DisableIdempotencyMiddleware      bool   `env:"DISABLE_IDEMPOTENCY_MIDDLEWARE" envDefault:"false"`
	IdempotencyMiddlewareDatabaseType string `env:"IDEMPOTENCY_MIDDLEWARE_DATABASE_TYPE" envDefault:"local"`
	IdempotencyMiddlewareRedisURL     string `env:"IDEMPOTENCY_MIDDLEWARE_REDIS_URL" envDefault:""`

	// -- Misc

	LogLevel string `env:"LOGLEVEL" envDefault:"info"`
}

type Options struct {
	EnvFilePath string
}

// Parse parses environment variables and flags to a valid Config.
func Parse() (*Config, error) {
	return ParseWithOpts(Options{})
}

func ParseWithOpts(opts Options) (*Config, error) {
	if opts.EnvFilePath != "" {
		if err := godotenv.Load(opts.EnvFilePath); err != nil {
			return nil, err
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ParseTestConfig parses a config for tests, using an isolated sqlite
// database which is removed when the test finishes.
func ParseTestConfig(t *testing.T) *Config {
	t.Helper()

	dir := t.TempDir()

	t.Setenv(envPrefix+"DATABASE_DSN", fmt.Sprintf("%s/test.db", dir))
	t.Setenv(envPrefix+"DATABASE_TYPE", "sqlite")
	t.Setenv(envPrefix+"APPS_DIR", fmt.Sprintf("%s/apps", dir))
	t.Setenv(envPrefix+"ACCOUNTS_DIR", fmt.Sprintf("%s/accounts", dir))
	t.Setenv(envPrefix+"INSTALL_BASE_DIR", dir)

	cfg, err := Parse()
	if err != nil {
		t.Fatal(err)
	}

	return cfg
}

func ConfigureLogger(logLevel string) {
	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		fmt.Printf("Warning: invalid log level: %s, using default level instead\n", logLevel)
		lvl = log.InfoLevel
	}

	log.SetOutput(os.Stdout)
	log.SetLevel(lvl)
}
