// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/evcraddock/forum-notes/internal/email"
)

// Config holds server settings. Every variable is prefixed with FN_.
type Config struct {
	DB       string `env:"DB"`
	Port     int    `env:"PORT" envDefault:"8080"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DevMode  bool   `env:"DEV_MODE"`
	SiteName string `env:"SITE_NAME" envDefault:"Forum"`
	Timezone string `env:"TIMEZONE" envDefault:"UTC"`

	SMTP email.SMTPConfig `envPrefix:"SMTP_"`

	NotifyWorkers     int           `env:"NOTIFY_WORKERS" envDefault:"2"`
	NotifyQueue       int           `env:"NOTIFY_QUEUE" envDefault:"64"`
	NotifyConcurrency int           `env:"NOTIFY_CONCURRENCY" envDefault:"4"`
	NotifyTimeout     time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"15s"`
}

// Location resolves Timezone, the zone local note timestamps are kept in.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads an optional .env file from the working directory, then parses
// the FN_ environment variables. Variables already set win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return Parse()
}

// Parse reads the FN_ environment variables without touching .env.
func Parse() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "FN_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.NotifyWorkers < 0 {
		return Config{}, fmt.Errorf("FN_NOTIFY_WORKERS must not be negative")
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
