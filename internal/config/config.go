package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file when none is given.
const DefaultPath = ".toolforge/config.yaml"

// Config holds all toolforge configuration.
type Config struct {
	Name string `yaml:"name"`

	// DataDir holds the tool source directory, metadata file and history db.
	DataDir string `yaml:"data_dir"`

	Validation ValidationConfig `yaml:"validation"`
	Execution  ExecutionConfig  `yaml:"execution"`
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
	History    HistoryConfig    `yaml:"history"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Listen string `yaml:"listen"`
	// Mode is passed to gin: debug, release or test.
	Mode string `yaml:"mode"`
}

// HistoryConfig configures the invocation history database.
type HistoryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"` // defaults to <data_dir>/history.db
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "toolforge",
		DataDir: ".toolforge",
		Validation: ValidationConfig{
			MaxSourceChars: 8000,
			MaxSourceLines: 300,
		},
		Execution: ExecutionConfig{
			DefaultTimeout:    "15s",
			SlowCallThreshold: "2s",
			StackFrames:       6,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Listen: "127.0.0.1:8088",
			Mode:   "release",
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
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

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("TOOLFORGE_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if level := os.Getenv("TOOLFORGE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if timeout := os.Getenv("TOOLFORGE_TIMEOUT"); timeout != "" {
		c.Execution.DefaultTimeout = timeout
	}
	if listen := os.Getenv("TOOLFORGE_LISTEN"); listen != "" {
		c.Server.Listen = listen
	}
	if v := os.Getenv("TOOLFORGE_HISTORY"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.History.Enabled = enabled
		}
	}
}

// ToolsDir is the directory holding tool_<name>.go files and tools_meta.json.
func (c *Config) ToolsDir() string {
	return filepath.Join(c.DataDir, "tools")
}

// HistoryPath returns the sqlite path for invocation history.
func (c *Config) HistoryPath() string {
	if c.History.DatabasePath != "" {
		return c.History.DatabasePath
	}
	return filepath.Join(c.DataDir, "history.db")
}

// GetExecutionTimeout returns the per-invocation timeout.
func (c *Config) GetExecutionTimeout() time.Duration {
	return parseDuration(c.Execution.DefaultTimeout, 15*time.Second)
}

// GetSlowCallThreshold returns the duration after which in-process calls are logged as slow.
func (c *Config) GetSlowCallThreshold() time.Duration {
	return parseDuration(c.Execution.SlowCallThreshold, 2*time.Second)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Validation.MaxSourceChars <= 0 {
		return fmt.Errorf("validation.max_source_chars must be positive, got %d", c.Validation.MaxSourceChars)
	}
	if c.Validation.MaxSourceLines <= 0 {
		return fmt.Errorf("validation.max_source_lines must be positive, got %d", c.Validation.MaxSourceLines)
	}
	if c.Execution.StackFrames < 0 {
		return fmt.Errorf("execution.stack_frames must not be negative")
	}
	if d, err := time.ParseDuration(c.Execution.DefaultTimeout); err != nil || d <= 0 {
		return fmt.Errorf("execution.default_timeout %q is not a positive duration", c.Execution.DefaultTimeout)
	}
	return nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
