package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/bnema/teneo-node-cli/pkg/logger"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".teneo"

	// EnvConfigDir overrides the configuration directory.
	EnvConfigDir = "TENEO_CONFIG_DIR"

	defaultAuthBaseURL  = "https://ikknngrgxuxgjhplbpey.supabase.co"
	defaultWebsocketURL = "wss://secure.ws.teneo.pro/websocket"
	defaultAppOrigin    = "50902350-093e-4f0f-9931-0a795a6d0902"
)

type Settings struct {
	APIKey    string        `mapstructure:"api_key"`
	Telegram  Telegram      `mapstructure:"telegram"`
	Endpoints Endpoints     `mapstructure:"endpoints"`
	Logger    logger.Config `mapstructure:"logger"`
}

type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type Endpoints struct {
	AuthBaseURL  string `mapstructure:"auth_base_url"`
	WebsocketURL string `mapstructure:"websocket_url"`
	AppOrigin    string `mapstructure:"app_origin"`
}

// Load reads config.toml from the configuration directory. A missing
// file yields defaults so commands that only touch the accounts file
// still work; Validate gates the settings the daemon actually needs.
func Load(cfg *viper.Viper) (Settings, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	dir, err := Dir()
	if err != nil {
		return Settings{}, err
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(dir)
	cfg.SetDefault("endpoints.auth_base_url", defaultAuthBaseURL)
	cfg.SetDefault("endpoints.websocket_url", defaultWebsocketURL)
	cfg.SetDefault("endpoints.app_origin", defaultAppOrigin)
	cfg.SetDefault("accounts.path", filepath.Join(dir, "accounts.toml"))

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var settings Settings
	if err := cfg.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("decode config file: %w", err)
	}

	return settings, nil
}

// Dir resolves the configuration directory, honoring EnvConfigDir.
func Dir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return filepath.Clean(dir), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(homeDir, configDir), nil
}

// Validate checks everything the farm daemon requires before any
// session starts.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.APIKey) == "" {
		return fmt.Errorf("api_key is required")
	}
	if strings.TrimSpace(s.Telegram.BotToken) == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if strings.TrimSpace(s.Telegram.ChatID) == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if strings.TrimSpace(s.Endpoints.AuthBaseURL) == "" {
		return fmt.Errorf("endpoints.auth_base_url is required")
	}
	if strings.TrimSpace(s.Endpoints.WebsocketURL) == "" {
		return fmt.Errorf("endpoints.websocket_url is required")
	}

	return nil
}
