// ABOUTME: Entry point for the coven CLI agent
// ABOUTME: Runs a local agent connected to a coven gateway over the persistent channel

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/coven-sdk/internal/channel"
	"github.com/2389/coven-sdk/internal/config"
	"github.com/2389/coven-sdk/internal/dedupe"
	"github.com/2389/coven-sdk/internal/events"
	"github.com/2389/coven-sdk/internal/gateway"
	"github.com/2389/coven-sdk/internal/memory"
	"github.com/2389/coven-sdk/internal/model"
	"github.com/2389/coven-sdk/internal/runtime"
	"github.com/2389/coven-sdk/internal/session"
	"github.com/2389/coven-sdk/internal/tool"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  ___ _____   _____ _ __        ___  __| | | __
 / __/ _ \ \ / / _ \ '_ \ _____/ __|/ _' | |/ /
| (_| (_) \ V /  __/ | | |_____\__ \ (_| |   <
 \___\___/ \_/ \___|_| |_|     |___/\__,_|_|\_\
`

// getConfigPath returns the path to the CLI config file.
// Priority: COVEN_CLI_CONFIG env var > XDG_CONFIG_HOME/coven/cli.toml > ~/.config/coven/cli.toml
func getConfigPath() string {
	if envPath := os.Getenv("COVEN_CLI_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "cli.toml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "coven", "cli.toml")
}

// getDataPath returns the path to the coven data directory.
// Priority: XDG_DATA_HOME/coven > ~/.local/share/coven
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "coven")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: coven-cli <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  chat     Start an interactive agent session")
		fmt.Println("  health   Check gateway connectivity")
		fmt.Println("  init     Create default config files")
		fmt.Println("  version  Print version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "chat":
		err = runChat(ctx)
	case "health":
		err = runHealth(ctx)
	case "init":
		err = runInit()
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runChat(ctx context.Context) error {
	cliCfg, err := loadCLIConfig(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading CLI config: %w", err)
	}

	sdkCfg, err := config.Load(cliCfg.SDK.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading SDK config: %w", err)
	}

	logger := setupLogger(cliCfg.Logging)
	slog.SetDefault(logger)

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	cyan.Print(banner)
	gray.Printf("    version: %s\n\n", version)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Gateway:  %s\n", sdkCfg.Gateway.URL)
	green.Print("    ▶ ")
	fmt.Printf("Sessions: %s\n", sdkCfg.Session.Path)
	green.Print("    ▶ ")
	fmt.Printf("Provider: %s\n", providerLabel(sdkCfg.Model))
	fmt.Println()

	store, err := session.NewSQLiteStore(sdkCfg.Session.Path)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer store.Close()

	provider, err := buildProvider(sdkCfg.Model)
	if err != nil {
		return err
	}

	tools := tool.NewRegistry()
	if cliCfg.Agent.WeatherTool {
		if err := tools.Register(tool.NewWeather()); err != nil {
			return fmt.Errorf("registering weather tool: %w", err)
		}
	}

	console := channel.NewConsole(channel.WithSender(cliCfg.Agent.Sender))

	if sdkCfg.Memory.Enabled {
		memStore, err := memory.NewStore(sdkCfg.Memory.Path)
		if err != nil {
			return fmt.Errorf("opening memory store: %w", err)
		}
		defer memStore.Close()

		// The console runs a single stable conversation, so memory tools
		// can be bound up front.
		for _, mt := range tool.MemoryTools(memStore, "local") {
			if err := tools.Register(mt); err != nil {
				return fmt.Errorf("registering memory tool: %w", err)
			}
		}
	}

	tracker := dedupe.New(10*time.Minute, 4096)
	defer tracker.Close()

	client := connectGateway(ctx, sdkCfg.Gateway, logger)
	if client != nil {
		defer client.Disconnect()
	}

	agent := runtime.New(store, provider, tools, tracker, runtime.Options{
		SystemPrompt:  cliCfg.Agent.SystemPrompt,
		HistoryLimit:  cliCfg.Agent.HistoryLimit,
		MaxToolRounds: cliCfg.Agent.MaxToolRounds,
		Logger:        logger,
	})

	logger.Info("agent ready", "channel", console.Name())
	return console.Run(ctx, agent.Handler(console.Name()))
}

// connectGateway dials the gateway when configured. A failed initial connect
// is reported but does not abort the session; local tools keep working.
func connectGateway(ctx context.Context, cfg config.GatewayConfig, logger *slog.Logger) *gateway.Client {
	client, err := gateway.NewClient(gateway.Config{
		URL:                     cfg.URL,
		ExpectedFingerprint:     cfg.Fingerprint,
		FingerprintRequired:     cfg.FingerprintRequired,
		TickInterval:            cfg.TickInterval,
		InitialReconnectBackoff: cfg.InitialReconnectBackoff,
		MaxReconnectBackoff:     cfg.MaxReconnectBackoff,
		Logger:                  logger,
	})
	if err != nil {
		logger.Warn("gateway client unavailable", "error", err)
		return nil
	}

	broadcaster := events.NewBroadcaster(logger)
	runtime.BindGatewayEvents(client, broadcaster)

	if err := client.Connect(ctx); err != nil {
		logger.Warn("gateway connect failed", "error", err)
	}
	return client
}

func buildProvider(cfg config.ModelConfig) (model.Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return model.NewAnthropic(func(o *model.AnthropicOptions) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
		}), nil
	case "openai":
		return model.NewOpenAI(func(o *model.OpenAIOptions) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
		}), nil
	case "", "mock":
		return model.NewMock(), nil
	default:
		return nil, fmt.Errorf("model.provider %q is not supported", cfg.Provider)
	}
}

func providerLabel(cfg config.ModelConfig) string {
	if cfg.Provider == "" {
		return "mock"
	}
	if cfg.Model != "" {
		return fmt.Sprintf("%s (%s)", cfg.Provider, cfg.Model)
	}
	return cfg.Provider
}

func runHealth(ctx context.Context) error {
	cliCfg, err := loadCLIConfig(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading CLI config: %w", err)
	}

	sdkCfg, err := config.Load(cliCfg.SDK.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading SDK config: %w", err)
	}

	client, err := gateway.NewClient(gateway.Config{
		URL:                 sdkCfg.Gateway.URL,
		ExpectedFingerprint: sdkCfg.Gateway.Fingerprint,
		FingerprintRequired: sdkCfg.Gateway.FingerprintRequired,
		TickInterval:        sdkCfg.Gateway.TickInterval,
	})
	if err != nil {
		return fmt.Errorf("creating gateway client: %w", err)
	}
	defer client.Disconnect()

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := client.Send(pingCtx, "ping", nil); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	configPath := getConfigPath()
	dataPath := getDataPath()
	sdkConfigPath := filepath.Join(filepath.Dir(configPath), "sdk.yaml")

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	if _, err := os.Stat(configPath); err == nil {
		cyan.Printf("  Config already exists: %s\n", configPath)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	cliContent := fmt.Sprintf(`# coven-cli configuration
# Generated by coven-cli init

[sdk]
config_path = "%s"

[agent]
system_prompt = "You are a helpful assistant."
sender = "user"
weather_tool = true

[logging]
level = "info"
format = "text"
`, sdkConfigPath)

	if err := os.WriteFile(configPath, []byte(cliContent), 0600); err != nil {
		return fmt.Errorf("writing CLI config: %w", err)
	}
	green.Printf("  ✓ Created config: %s\n", configPath)

	sdkContent := fmt.Sprintf(`# coven SDK configuration
# Generated by coven-cli init

gateway:
  url: "ws://127.0.0.1:18789/gateway"
  tick_interval: "30s"
  initial_reconnect_backoff: "1s"
  max_reconnect_backoff: "30s"

session:
  path: "%s"

memory:
  enabled: true
  path: "%s"

model:
  provider: "mock"

logging:
  level: "info"
  format: "text"
`, filepath.Join(dataPath, "sessions.db"), filepath.Join(dataPath, "memory.db"))

	if err := os.WriteFile(sdkConfigPath, []byte(sdkContent), 0600); err != nil {
		return fmt.Errorf("writing SDK config: %w", err)
	}
	green.Printf("  ✓ Created SDK config: %s\n", sdkConfigPath)

	fmt.Println()
	fmt.Println("To start chatting:")
	fmt.Println("  coven-cli chat")

	return nil
}
