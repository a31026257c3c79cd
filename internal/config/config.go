// Package config loads the application configuration: defaults,
// overlaid by the YAML file in the data directory, overlaid by
// WONDERLENS_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all wonderlens configuration.
type Config struct {
	// DataDir is where the database, logs, and config file live.
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`

	Backend BackendConfig `yaml:"backend"`
	Chat    ChatConfig    `yaml:"chat"`
	Speech  SpeechConfig  `yaml:"speech"`
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig configures the exploration backend client.
type BackendConfig struct {
	BaseURL    string `yaml:"base_url" envconfig:"BACKEND_URL"`
	Timeout    string `yaml:"timeout" envconfig:"BACKEND_TIMEOUT"`
	MaxRetries uint64 `yaml:"max_retries" envconfig:"BACKEND_MAX_RETRIES"`
}

// ChatConfig configures the conversation pipeline.
type ChatConfig struct {
	MaxContextRounds int `yaml:"max_context_rounds" envconfig:"MAX_CONTEXT_ROUNDS"`
}

// SpeechConfig configures read-aloud behavior.
type SpeechConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"SPEECH_ENABLED"`
	Language string `yaml:"language" envconfig:"SPEECH_LANGUAGE"`
}

// LoggingConfig configures the categorized debug logger. The logging
// package reads the same section from the same file, so the schema
// here must stay identical to what it parses: categories is a
// per-category enable map, absent categories default to enabled.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode" envconfig:"DEBUG"`
	Level      string          `yaml:"level" envconfig:"LOG_LEVEL"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultDataDir is ~/.wonderlens, falling back to the working
// directory when the home directory cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wonderlens"
	}
	return filepath.Join(home, ".wonderlens")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Backend: BackendConfig{
			BaseURL:    "https://explore.wonderlens.app",
			Timeout:    "30s",
			MaxRetries: 3,
		},
		Chat: ChatConfig{
			MaxContextRounds: 10,
		},
		Speech: SpeechConfig{
			Enabled:  true,
			Language: "zh",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration file at path, starting from defaults.
// A missing file is not an error. Environment variables win last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := envconfig.Process("wonderlens", cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}
	return cfg, nil
}

// LoadFromDataDir loads <dataDir>/config.yaml.
func LoadFromDataDir(dataDir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dataDir, "config.yaml"))
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DatabasePath is where the SQLite database lives.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "wonderlens.db")
}

// BackendTimeout parses the backend timeout, defaulting to 30s on a
// malformed value.
func (c *Config) BackendTimeout() time.Duration {
	d, err := time.ParseDuration(c.Backend.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Validate checks the fields commands depend on.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url must not be empty")
	}
	if c.Chat.MaxContextRounds < 1 {
		return fmt.Errorf("chat.max_context_rounds must be at least 1")
	}
	switch c.Speech.Language {
	case "zh", "en":
	default:
		return fmt.Errorf("speech.language must be zh or en, got %q", c.Speech.Language)
	}
	return nil
}
