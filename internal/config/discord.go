package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// BotConfig is everything the bot needs to talk to Discord.
// The variable names match the ones the bot has always been deployed with.
type BotConfig struct {
	Token   string `env:"DISCORD_TOKEN, required"`
	GuildID string `env:"GUILD_ID, required"`
	Prefix  string `env:"PREFIX, required"`
}

func NewBotConfigFromEnv() (*BotConfig, error) {
	var cfg BotConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Prefix) == "" {
		return nil, fmt.Errorf("PREFIX must not be blank")
	}

	return &cfg, nil
}
