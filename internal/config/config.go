// Package config reads the process configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
	"github.com/friendsofgo/errors"
	"github.com/joho/godotenv"
)

// Config carries everything the binaries need to wire themselves up.
//
// Durations are plain integers in the environment (milliseconds, seconds,
// minutes as the variable names say); the accessor methods convert them.
type Config struct {
	HTTPAddress string `env:"HTTP_ADDRESS" envDefault:":8080"`
	Debug       bool   `env:"DEBUG" envDefault:"false"`
	DryRun      bool   `env:"DRY_RUN" envDefault:"false"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile     string `env:"LOG_FILE"`

	// DefaultPrincipal stands in for the gateway headers in environments
	// without an authenticating proxy. Empty means requests must carry a
	// principal header.
	DefaultPrincipal string `env:"DEFAULT_PRINCIPAL"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBName     string `env:"DB_NAME" envDefault:"planos"`
	DBUser     string `env:"DB_USER" envDefault:"planos"`
	DBPassword string `env:"DB_PASSWORD"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	DBMaxOpen             int `env:"DB_MAX_OPEN" envDefault:"10"`
	DBMaxIdle             int `env:"DB_MAX_IDLE" envDefault:"5"`
	DBConnLifetimeMinutes int `env:"DB_CONN_LIFETIME_MINUTES" envDefault:"30"`

	CountBudgetMS        int `env:"COUNT_BUDGET_MS" envDefault:"1500"`
	CountCacheTTLSeconds int `env:"COUNT_CACHE_TTL_SECONDS" envDefault:"60"`
}

// Load reads the environment into a Config. A .env file in the working
// directory is loaded first when present; a missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parsing environment")
	}
	return cfg, nil
}

// DSN assembles the lib/pq connection string. The password key is omitted
// entirely when empty so trust-authenticated setups keep working.
func (c *Config) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBSSLMode)
	if c.DBPassword != "" {
		dsn += " password=" + c.DBPassword
	}
	return dsn
}

// CountBudget is the statement timeout applied to listing count queries.
func (c *Config) CountBudget() time.Duration {
	return time.Duration(c.CountBudgetMS) * time.Millisecond
}

// CountCacheTTL is how long a counted total may be served from cache.
func (c *Config) CountCacheTTL() time.Duration {
	return time.Duration(c.CountCacheTTLSeconds) * time.Second
}

// DBConnLifetime is the maximum age of a pooled connection.
func (c *Config) DBConnLifetime() time.Duration {
	return time.Duration(c.DBConnLifetimeMinutes) * time.Minute
}
