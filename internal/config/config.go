// Package config loads the application configuration from built-in
// defaults, an optional YAML file and PACELINE_-prefixed environment
// variables, in that order.
package config

import (
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/paceline/paceline/internal/logging"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Pacing  PacingConfig  `yaml:"pacing"`
	Model   ModelConfig   `yaml:"model"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// PacingConfig controls the spacing between model calls.
type PacingConfig struct {
	Delay  time.Duration `yaml:"delay"`
	Jitter time.Duration `yaml:"jitter"`
}

type ModelConfig struct {
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8080},
		Pacing: PacingConfig{Delay: 500 * time.Millisecond, Jitter: time.Second},
		Model: ModelConfig{
			Provider:    "scripted",
			APIKeyEnv:   "OPENAI_API_KEY",
			Temperature: 0.7,
			MaxTokens:   1024,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("server: invalid port %d", c.Server.Port)
	}
	if c.Pacing.Delay < 0 {
		return errors.New("pacing: delay cannot be negative")
	}
	if c.Pacing.Jitter < 0 {
		return errors.New("pacing: jitter cannot be negative")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return errors.Wrap(err, "logging")
	}
	return nil
}
