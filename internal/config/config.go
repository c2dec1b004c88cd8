// internal/config/config.go
//
// Environment-backed configuration. godotenv loads .env in main; this
// package only parses the process environment into a struct.

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Two database files, like the corpus/state split: the verse corpus is
	// read-only at runtime, game state is not.
	BibleDB string `env:"BIBLE_DB" envDefault:"./data/bible.db"`
	DataDB  string `env:"DATA_DB" envDefault:"./data/data.db"`

	JWTSecret     string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpireDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName    string `env:"COOKIE_NAME" envDefault:"scriptle_token"`
	ClientOrigin  string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	// DailySalt keys the verse-of-the-day rotation.
	DailySalt string `env:"DAILY_SALT" envDefault:"local_dev_salt"`

	// Production toggles Secure/SameSite=None cookies.
	Production bool `env:"PRODUCTION" envDefault:"false"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
