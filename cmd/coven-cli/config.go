// ABOUTME: Configuration loading for the coven CLI
// ABOUTME: Loads TOML config from XDG path with environment variable expansion

package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	SDK     SDKConfig     `toml:"sdk"`
	Agent   AgentConfig   `toml:"agent"`
	Logging LoggingConfig `toml:"logging"`
}

type SDKConfig struct {
	// ConfigPath points at the SDK YAML config (gateway, session, model).
	ConfigPath string `toml:"config_path"`
}

type AgentConfig struct {
	SystemPrompt  string `toml:"system_prompt"`
	Sender        string `toml:"sender"`
	HistoryLimit  int    `toml:"history_limit"`
	MaxToolRounds int    `toml:"max_tool_rounds"`
	WeatherTool   bool   `toml:"weather_tool"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// loadCLIConfig reads config from the given path, expanding environment variables.
func loadCLIConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(varName)
	})
}

// Validate checks that required config fields are present and valid.
func (c *Config) Validate() error {
	if c.SDK.ConfigPath == "" {
		return fmt.Errorf("sdk.config_path is required")
	}
	if c.Agent.HistoryLimit < 0 {
		return fmt.Errorf("agent.history_limit must not be negative")
	}
	if c.Agent.MaxToolRounds < 0 {
		return fmt.Errorf("agent.max_tool_rounds must not be negative")
	}
	return nil
}
