package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the immutable process configuration. It is constructed once at
// startup (Default, optionally overlaid by a YAML file and flags) and passed
// explicitly to the components that need it.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Locate  LocateConfig  `yaml:"locate"`
	Execute ExecuteConfig `yaml:"execute"`
	LLM     LLMConfig     `yaml:"llm"`
	Store   StoreConfig   `yaml:"store"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// LocateConfig tunes the failure-to-source mapping.
type LocateConfig struct {
	// SourceExt is the source file extension used when constructing
	// candidate paths from fully qualified class names.
	SourceExt string `yaml:"source_ext"`
	// SearchDirs overrides the conventional test/main source roots,
	// relative to the repository root.
	SearchDirs []string `yaml:"search_dirs"`
}

// ExecuteConfig tunes local test re-execution.
type ExecuteConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// LLMConfig points at the text-generation collaborator.
type LLMConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKeyPath     string `yaml:"api_key_path"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// StoreConfig locates the analysis history database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// NotifyConfig configures the Slack webhook notifier. An empty URL disables
// notification.
type NotifyConfig struct {
	SlackWebhookURL string `yaml:"slack_webhook_url"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Locate:  LocateConfig{SourceExt: ".java"},
		Execute: ExecuteConfig{TimeoutSeconds: 300},
		LLM:     LLMConfig{APIKeyPath: ".llm-api-key", TimeoutSeconds: 120},
		Store:   StoreConfig{Path: ".failsolver/failsolver.db"},
	}
}

// Load reads a YAML config file and overlays it on the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config yaml: %w", err)
	}
	return cfg, nil
}

// ExecTimeout returns the execution timeout as a duration.
func (c Config) ExecTimeout() time.Duration {
	if c.Execute.TimeoutSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.Execute.TimeoutSeconds) * time.Second
}

// LLMTimeout returns the generation round-trip timeout as a duration.
func (c Config) LLMTimeout() time.Duration {
	if c.LLM.TimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}
