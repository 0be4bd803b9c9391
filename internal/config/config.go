// Package config loads copilot configuration from YAML with environment
// overrides for secrets and deploy-specific paths.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all copilot configuration.
type Config struct {
	// Snapshot database settings
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Answer formatting
	Answers AnswerConfig `yaml:"answers"`

	// Planner fallback (LLM-backed)
	Planner PlannerConfig `yaml:"planner"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// SnapshotConfig configures the read-only snapshot database.
type SnapshotConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// AnswerConfig configures answer rendering.
type AnswerConfig struct {
	PageSize int `yaml:"page_size"`
}

// PlannerConfig configures the optional LLM planner fallback.
type PlannerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	RowCap  int    `yaml:"row_cap"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Snapshot: SnapshotConfig{
			Path:  "data/snapshot.db",
			Watch: true,
		},
		Answers: AnswerConfig{
			PageSize: 25,
		},
		Planner: PlannerConfig{
			Enabled: false,
			Model:   "gemini-2.0-flash",
			RowCap:  50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
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

// applyEnvOverrides applies environment variable overrides. The API key
// never belongs in the YAML file on shared machines; the env var wins.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Planner.APIKey = key
		c.Planner.Enabled = true
	}
	if path := os.Getenv("COPILOT_SNAPSHOT"); path != "" {
		c.Snapshot.Path = path
	}
	if level := os.Getenv("COPILOT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path must be set")
	}
	if c.Answers.PageSize < 0 {
		return fmt.Errorf("answers.page_size must not be negative")
	}
	if c.Planner.Enabled && c.Planner.APIKey == "" {
		return fmt.Errorf("planner.enabled requires an API key (planner.api_key or GEMINI_API_KEY)")
	}
	return nil
}
