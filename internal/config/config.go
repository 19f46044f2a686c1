// Package config loads the typed configuration shared by the relay, the
// sync daemon, and the operator CLI.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Relay   RelayConfig   `mapstructure:"relay"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Discord DiscordConfig `mapstructure:"discord"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type RelayConfig struct {
	Port          string `mapstructure:"port"`
	JournalPath   string `mapstructure:"journal_path"`
	EventsEnabled bool   `mapstructure:"events_enabled"`
}

type SyncConfig struct {
	RelayURL  string        `mapstructure:"relay_url"`
	Interval  time.Duration `mapstructure:"interval"`
	Channel   string        `mapstructure:"channel"`
	BridgeURL string        `mapstructure:"bridge_url"`
}

type DiscordConfig struct {
	APIBase   string `mapstructure:"api_base"`
	BotToken  string `mapstructure:"bot_token"`
	PageLimit int    `mapstructure:"page_limit"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	// A local .env is a convenience for development; missing is fine.
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	v.SetDefault("relay.port", "9210")
	v.SetDefault("relay.journal_path", "")
	v.SetDefault("relay.events_enabled", true)
	v.SetDefault("sync.relay_url", "http://127.0.0.1:9210")
	v.SetDefault("sync.interval", "1s")
	v.SetDefault("sync.channel", "")
	v.SetDefault("sync.bridge_url", "")
	v.SetDefault("discord.api_base", "https://discord.com/api/v10")
	v.SetDefault("discord.page_limit", 100)
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("YTSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind nested keys to env vars
	_ = v.BindEnv("discord.bot_token", "YTSYNC_DISCORD_BOT_TOKEN")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Relay.Port == "" {
		return fmt.Errorf("relay.port is required")
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive")
	}
	if c.Sync.RelayURL == "" {
		return fmt.Errorf("sync.relay_url is required")
	}
	if c.Discord.PageLimit < 1 || c.Discord.PageLimit > 100 {
		return fmt.Errorf("discord.page_limit must be 1..100")
	}
	return nil
}

// RelayAddr is the listen address derived from the configured port.
func (c *Config) RelayAddr() string {
	return ":" + c.Relay.Port
}
