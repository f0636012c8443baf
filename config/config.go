package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type OpenAIConfig struct {
	BaseURL        string `toml:"base_url"`
	DefaultModel   string `toml:"default_model"`
	ListOrder      string `toml:"list_order"`
	ListLimit      int    `toml:"list_limit"`
	RequestTimeout int    `toml:"request_timeout"`
}

type SessionConfig struct {
	DefaultInstructions string `toml:"default_instructions,omitempty"`
	PersistInvalidKey   bool   `toml:"persist_invalid_key"`
}

type SecurityConfig struct {
	CredentialStorage SecurityMethod `toml:"credential_storage"`
	SSHKeyPath        string         `toml:"ssh_key_path,omitempty"`
}

type TelemetryConfig struct {
	Enabled bool `toml:"enabled"`
}

type UserConfig struct {
	OpenAI    OpenAIConfig    `toml:"openai"`
	Session   SessionConfig   `toml:"session"`
	Security  SecurityConfig  `toml:"security"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

type Config struct {
	DataDirectory       string
	BaseURL             string
	DefaultModel        string
	ListOrder           string
	ListLimit           int
	RequestTimeout      time.Duration
	DefaultInstructions string
	PersistInvalidKey   bool
	CredentialStorage   SecurityMethod
	SSHKeyPath          string
	TelemetryEnabled    bool
	Keybindings         *KeyBindingsConfig

	// EnvAPIKey is set from ASSISTUI_API_KEY or OPENAI_API_KEY and is never persisted.
	EnvAPIKey string
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyUserConfig(userCfg *UserConfig) {
	c.BaseURL = userCfg.OpenAI.BaseURL
	c.DefaultModel = userCfg.OpenAI.DefaultModel
	c.ListOrder = userCfg.OpenAI.ListOrder
	c.ListLimit = userCfg.OpenAI.ListLimit
	c.RequestTimeout = time.Duration(userCfg.OpenAI.RequestTimeout) * time.Second
	c.DefaultInstructions = userCfg.Session.DefaultInstructions
	c.PersistInvalidKey = userCfg.Session.PersistInvalidKey
	c.CredentialStorage = userCfg.Security.CredentialStorage
	c.SSHKeyPath = userCfg.Security.SSHKeyPath
	c.TelemetryEnabled = userCfg.Telemetry.Enabled

	if c.ListOrder != "asc" && c.ListOrder != "desc" {
		c.ListOrder = "desc"
	}
	if c.CredentialStorage == "" {
		c.CredentialStorage = SecurityPlainText
	}
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("ASSISTUI_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if baseURL := os.Getenv("ASSISTUI_BASE_URL"); baseURL != "" {
		c.BaseURL = baseURL
	}
	if model := os.Getenv("ASSISTUI_MODEL"); model != "" {
		c.DefaultModel = model
	}
	if limit := os.Getenv("ASSISTUI_LIST_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n >= 0 {
			c.ListLimit = n
		}
	}

	c.EnvAPIKey = os.Getenv("ASSISTUI_API_KEY")
	if c.EnvAPIKey == "" {
		c.EnvAPIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func CheckDebug() bool {
	debug := os.Getenv("ASSISTUI_DEBUG")
	return debug == "true" || debug == "1"
}

// Load reads settings.toml for the data directory, then config.toml inside it.
// Missing files are created from templates. Environment variables override both.
func Load() (*Config, error) {
	defaults := DefaultUserConfig()
	cfg := &Config{DataDirectory: DefaultSystemConfig().DataDirectory}
	cfg.applyUserConfig(defaults)

	if dataDir := os.Getenv("ASSISTUI_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
	} else {
		systemCfg, err := LoadSystemConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load system config: %w", err)
		}
		cfg.DataDirectory = systemCfg.DataDirectory
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Ensure data directory has correct permissions (fix if needed)
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.applyUserConfig(userCfg)
	cfg.applyEnvOverrides()

	kb, err := LoadKeybindings(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load keybindings: %w", err)
	}
	cfg.Keybindings = kb

	return cfg, nil
}
