package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type PlayerConfig struct {
	StreamTimeout time.Duration `env:"STREAM_TIMEOUT, default=30s"`

	// CommandRate is the sustained number of commands per second a single
	// user may issue. CommandBurst is how many may arrive at once.
	CommandRate  float64 `env:"COMMAND_RATE, default=1"`
	CommandBurst int     `env:"COMMAND_BURST, default=3"`

	PublishEvents bool `env:"PUBLISH_PLAYBACK_EVENTS, default=false"`
	YTDLPFallback bool `env:"YTDLP_FALLBACK, default=true"`

	LogLevel string `env:"LOG_LEVEL, default=info"`
}

func NewPlayerConfigFromEnv() (*PlayerConfig, error) {
	var cfg PlayerConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if cfg.StreamTimeout <= 0 {
		return nil, fmt.Errorf("STREAM_TIMEOUT must be positive, got %s", cfg.StreamTimeout)
	}
	if cfg.CommandRate <= 0 || cfg.CommandBurst <= 0 {
		return nil, fmt.Errorf("COMMAND_RATE and COMMAND_BURST must be positive")
	}

	if _, err := cfg.Level(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Level parses LogLevel as a slog level name such as "debug" or "warn".
func (c *PlayerConfig) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
