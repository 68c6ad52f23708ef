// Package config loads process configuration from the environment. The parsed
// value is constructed once in main and handed to whatever needs it; nothing
// here is cached globally.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Mail struct {
	ServerToken string `env:"TOKEN"`
	FromEmail   string `env:"FROM" envDefault:"noreply@choreboard.local"`
	AdminEmail  string `env:"ADMIN"`
}

type S3 struct {
	Endpoint  string `env:"ENDPOINT"`
	Bucket    string `env:"BUCKET"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
}

type Backup struct {
	S3           S3     `envPrefix:"S3_"`
	Passphrase   string `env:"BACKUP_PASSPHRASE"`
	ScheduleHour int    `env:"BACKUP_HOUR" envDefault:"3"`
}

type Config struct {
	Addr     string `env:"ADDR" envDefault:":8080"`
	DBPath   string `env:"DB_PATH" envDefault:"choreboard.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Timezone is the display zone used for "today" checks and day-of-week
	// attribution of completions.
	Timezone string `env:"TZ" envDefault:"America/New_York"`

	// WeekStartDay is accepted for compatibility; only "monday" is supported.
	WeekStartDay string `env:"WEEK_START" envDefault:"monday"`

	Mail   Mail   `envPrefix:"MAIL_"`
	Backup Backup `envPrefix:""`
}

// Load parses configuration from CHOREBOARD_-prefixed environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "CHOREBOARD_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.WeekStartDay != "monday" {
		return Config{}, fmt.Errorf("unsupported week start day %q: weeks begin on monday", cfg.WeekStartDay)
	}
	return cfg, nil
}

// Location resolves the configured time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
