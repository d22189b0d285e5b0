package main

import (
	"fmt"
	"strings"
	"time"

	"dailyrise_engine/internal/repository"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`

	Reminders RemindersConfig `yaml:"reminders"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Feed      FeedConfig      `yaml:"feed"`
	Points    PointsConfig    `yaml:"points"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type RemindersConfig struct {
	// Path of the local sqlite file holding reminder definitions.
	Path string `yaml:"path"`
}

type TelegramConfig struct {
	// BotToken enables reminder notifications through a bot chat.
	// Empty disables the channel.
	BotToken string `yaml:"botToken"`
}

type FeedConfig struct {
	// PollInterval bounds the change feed's polling fallback while the
	// LISTEN connection is down.
	PollInterval time.Duration `yaml:"pollInterval"`
}

type PointsConfig struct {
	// ChallengeReward is granted to each participant of a completed
	// challenge.
	ChallengeReward int `yaml:"challengeReward"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.SetDefault("reminders.path", "reminders.db")
	viper.SetDefault("feed.pollInterval", "15s")
	viper.SetDefault("points.challengeReward", 10)
	viper.SetDefault("logLevel", "info")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
