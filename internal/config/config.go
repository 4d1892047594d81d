// Package config loads the tgkeeper configuration file.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const exampleFile = "config.example.toml"

// Config is the merged tgkeeper configuration.
type Config struct {
	// BotToken authenticates against the Telegram Bot API.
	BotToken string `toml:"bot_token"`

	// DataDir is the root for the database, session file and media tree.
	DataDir string `toml:"data_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// CheckpointSeconds is the session checkpoint interval.
	CheckpointSeconds int `toml:"checkpoint_seconds"`
}

// Defaults returns a Config with every optional field filled in.
func Defaults() Config {
	return Config{
		DataDir:           "data",
		LogLevel:          "info",
		CheckpointSeconds: 30,
	}
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s not found, copy %s and fill in your credentials: %w", path, exampleFile, err)
	}

	cfg := Defaults()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("bot_token not set in config")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.CheckpointSeconds <= 0 {
		return fmt.Errorf("checkpoint_seconds must be positive, got %d", c.CheckpointSeconds)
	}
	return nil
}
