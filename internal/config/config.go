// ABOUTME: Configuration loading and parsing for the coven SDK
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete SDK configuration.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
	Session SessionConfig `yaml:"session"`
	Memory  MemoryConfig  `yaml:"memory"`
	Model   ModelConfig   `yaml:"model"`
	Logging LoggingConfig `yaml:"logging"`
}

// GatewayConfig holds transport settings for the gateway client.
type GatewayConfig struct {
	URL                 string `yaml:"url"`
	Fingerprint         string `yaml:"fingerprint"`
	FingerprintRequired bool   `yaml:"fingerprint_required"`

	TickInterval            time.Duration `yaml:"-"`
	InitialReconnectBackoff time.Duration `yaml:"-"`
	MaxReconnectBackoff     time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	TickIntervalRaw            string `yaml:"tick_interval"`
	InitialReconnectBackoffRaw string `yaml:"initial_reconnect_backoff"`
	MaxReconnectBackoffRaw     string `yaml:"max_reconnect_backoff"`
}

// SessionConfig holds session persistence settings.
type SessionConfig struct {
	Path string `yaml:"path"`
}

// MemoryConfig holds agent memory persistence settings.
type MemoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ModelConfig selects and configures the model provider.
type ModelConfig struct {
	Provider  string `yaml:"provider"` // "anthropic", "openai", "mock"
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	MaxTokens int64  `yaml:"max_tokens"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to the empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway.url is required")
	}
	u, err := url.Parse(c.Gateway.URL)
	if err != nil {
		return fmt.Errorf("gateway.url is not a valid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("gateway.url must use ws or wss scheme")
	}

	if c.Gateway.FingerprintRequired && c.Gateway.Fingerprint == "" {
		return fmt.Errorf("gateway.fingerprint is required when fingerprint_required is set")
	}

	if c.Session.Path == "" {
		return fmt.Errorf("session.path is required")
	}

	if c.Memory.Enabled && c.Memory.Path == "" {
		return fmt.Errorf("memory.path is required when memory is enabled")
	}

	switch c.Model.Provider {
	case "", "anthropic", "openai", "mock":
	default:
		return fmt.Errorf("model.provider %q is not supported", c.Model.Provider)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Gateway.TickIntervalRaw != "" {
		cfg.Gateway.TickInterval, err = time.ParseDuration(cfg.Gateway.TickIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing tick_interval %q: %w", cfg.Gateway.TickIntervalRaw, err)
		}
	}

	if cfg.Gateway.InitialReconnectBackoffRaw != "" {
		cfg.Gateway.InitialReconnectBackoff, err = time.ParseDuration(cfg.Gateway.InitialReconnectBackoffRaw)
		if err != nil {
			return fmt.Errorf("parsing initial_reconnect_backoff %q: %w", cfg.Gateway.InitialReconnectBackoffRaw, err)
		}
	}

	if cfg.Gateway.MaxReconnectBackoffRaw != "" {
		cfg.Gateway.MaxReconnectBackoff, err = time.ParseDuration(cfg.Gateway.MaxReconnectBackoffRaw)
		if err != nil {
			return fmt.Errorf("parsing max_reconnect_backoff %q: %w", cfg.Gateway.MaxReconnectBackoffRaw, err)
		}
	}

	return nil
}
