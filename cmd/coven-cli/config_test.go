// ABOUTME: Tests for CLI config loading and validation.
// ABOUTME: Covers TOML parsing, env expansion, and required-field checks.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCLIConfig_FullConfig(t *testing.T) {
	path := writeConfig(t, `
[sdk]
config_path = "/etc/coven/sdk.yaml"

[agent]
system_prompt = "be terse"
sender = "alice"
history_limit = 25
max_tool_rounds = 4
weather_tool = true

[logging]
level = "debug"
format = "json"
`)

	cfg, err := loadCLIConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/coven/sdk.yaml", cfg.SDK.ConfigPath)
	assert.Equal(t, "be terse", cfg.Agent.SystemPrompt)
	assert.Equal(t, 25, cfg.Agent.HistoryLimit)
	assert.True(t, cfg.Agent.WeatherTool)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadCLIConfig_ExpandsEnvVars(t *testing.T) {
	t.Setenv("COVEN_TEST_SDK_PATH", "/custom/sdk.yaml")

	path := writeConfig(t, `
[sdk]
config_path = "${COVEN_TEST_SDK_PATH}"
`)

	cfg, err := loadCLIConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/custom/sdk.yaml", cfg.SDK.ConfigPath)
}

func TestLoadCLIConfig_MissingSDKPath(t *testing.T) {
	path := writeConfig(t, `
[agent]
sender = "alice"
`)

	_, err := loadCLIConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sdk.config_path is required")
}

func TestLoadCLIConfig_NegativeHistoryLimit(t *testing.T) {
	path := writeConfig(t, `
[sdk]
config_path = "/etc/coven/sdk.yaml"

[agent]
history_limit = -1
`)

	_, err := loadCLIConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history_limit")
}

func TestLoadCLIConfig_MissingFile(t *testing.T) {
	_, err := loadCLIConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
