// Package config loads SalaatFlow configuration from a YAML file with
// environment variable overrides. Missing file is not an error; defaults
// apply and env vars still win.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all SalaatFlow configuration.
type Config struct {
	LLM          LLMConfig          `yaml:"llm"`
	Store        StoreConfig        `yaml:"store"`
	Conversation ConversationConfig `yaml:"conversation"`
	Logging      LoggingConfig      `yaml:"logging"`
	Server       ServerConfig       `yaml:"server"`
}

// LLMConfig configures the advisory free-text oracle.
type LLMConfig struct {
	// Enabled gates the oracle entirely. The grammar rules carry the
	// interpreter on their own when this is false.
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// TimeoutDuration parses the timeout string, defaulting to 30s.
func (c LLMConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// StoreConfig configures the SQLite store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ConversationConfig bounds per-session state.
type ConversationConfig struct {
	// HistoryWindow is the number of turns kept per session; older
	// turns are evicted.
	HistoryWindow int `yaml:"history_window"`
	// ConfirmTTLTurns is how many further turns a pending delete
	// confirmation survives before it expires.
	ConfirmTTLTurns int `yaml:"confirm_ttl_turns"`
}

// LoggingConfig configures the category debug logger.
type LoggingConfig struct {
	DebugMode bool   `yaml:"debug_mode"`
	Level     string `yaml:"level"`
}

// ServerConfig configures the HTTP chat endpoint.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Enabled: false,
			Model:   "gemini-2.0-flash",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Timeout: "30s",
		},
		Store: StoreConfig{
			DatabasePath: filepath.Join(".salaatflow", "salaatflow.db"),
		},
		Conversation: ConversationConfig{
			HistoryWindow:   20,
			ConfirmTTLTurns: 2,
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads the config file at path (or the default location when path
// is empty), layers it over Default, then applies env overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(".salaatflow", "config.yaml")
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
		cfg.LLM.Enabled = true
	}
	if v := os.Getenv("SALAATFLOW_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("SALAATFLOW_DB_PATH"); v != "" {
		cfg.Store.DatabasePath = v
	}
	if v := os.Getenv("SALAATFLOW_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SALAATFLOW_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Logging.DebugMode = b
		}
	}
}

func (c *Config) validate() error {
	if c.Conversation.HistoryWindow <= 0 {
		c.Conversation.HistoryWindow = Default().Conversation.HistoryWindow
	}
	if c.Conversation.ConfirmTTLTurns <= 0 {
		c.Conversation.ConfirmTTLTurns = Default().Conversation.ConfirmTTLTurns
	}
	if c.Store.DatabasePath == "" {
		return fmt.Errorf("store.database_path must not be empty")
	}
	return nil
}

// Save writes the config as YAML to path, creating parent directories.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
