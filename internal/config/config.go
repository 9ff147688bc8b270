package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/jwebster45206/inquest-engine/pkg/state"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel    slog.Level

	RedisURL       string        `env:"REDIS_URL" envDefault:"localhost:6379"`
	DatabasePath   string        `env:"DATABASE_PATH" envDefault:"./data/inquest.db"`
	ContentDir     string        `env:"CONTENT_DIR" envDefault:"./data/content"`
	PendingRollTTL time.Duration `env:"PENDING_ROLL_TTL" envDefault:"30m"`

	HPCeiling        int `env:"HP_CEILING" envDefault:"100"`
	SanityCeiling    int `env:"SANITY_CEILING" envDefault:"100"`
	HungerCeiling    int `env:"HUNGER_CEILING" envDefault:"50"`
	PollutionCeiling int `env:"POLLUTION_CEILING" envDefault:"100"`

	// Daily sweeps run on calendar days in this zone.
	Timezone  string `env:"TIMEZONE" envDefault:"Asia/Seoul"`
	SweepHour int    `env:"SWEEP_HOUR" envDefault:"0"`

	// Seed fixes the engine die when non-zero.
	Seed int64 `env:"SEED" envDefault:"0"`

	location *time.Location
}

// Load reads a .env file when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	if cfg.SweepHour < 0 || cfg.SweepHour > 23 {
		return nil, fmt.Errorf("SWEEP_HOUR must be 0-23, got %d", cfg.SweepHour)
	}
	if cfg.PendingRollTTL <= 0 {
		return nil, fmt.Errorf("PENDING_ROLL_TTL must be positive")
	}
	for name, v := range map[string]int{
		"HP_CEILING":        cfg.HPCeiling,
		"SANITY_CEILING":    cfg.SanityCeiling,
		"HUNGER_CEILING":    cfg.HungerCeiling,
		"POLLUTION_CEILING": cfg.PollutionCeiling,
	} {
		if v <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	return cfg, nil
}

// Limits are the vital ceilings.
func (c *Config) Limits() state.Limits {
	return state.Limits{
		HP:        c.HPCeiling,
		Sanity:    c.SanityCeiling,
		Hunger:    c.HungerCeiling,
		Pollution: c.PollutionCeiling,
	}
}

// Location is the zone calendar days are counted in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
