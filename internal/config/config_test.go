package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "toolforge" {
		t.Errorf("expected Name=toolforge, got %s", cfg.Name)
	}
	if cfg.Validation.MaxSourceChars != 8000 {
		t.Errorf("expected MaxSourceChars=8000, got %d", cfg.Validation.MaxSourceChars)
	}
	if cfg.Validation.MaxSourceLines != 300 {
		t.Errorf("expected MaxSourceLines=300, got %d", cfg.Validation.MaxSourceLines)
	}
	if got := cfg.GetExecutionTimeout(); got != 15*time.Second {
		t.Errorf("expected 15s execution timeout, got %v", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("TOOLFORGE_DATA_DIR", "")
	t.Setenv("TOOLFORGE_TIMEOUT", "")

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/toolforge"
	cfg.Validation.AllowedImports = []string{"math", "strings"}
	cfg.Execution.DefaultTimeout = "3s"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/toolforge", loaded.DataDir)
	assert.Equal(t, []string{"math", "strings"}, loaded.Validation.AllowedImports)
	assert.Equal(t, 3*time.Second, loaded.GetExecutionTimeout())
	assert.Equal(t, filepath.Join("/var/lib/toolforge", "tools"), loaded.ToolsDir())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("TOOLFORGE_DATA_DIR", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().DataDir, cfg.DataDir)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Setenv("TOOLFORGE_DATA_DIR", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("validation:\n  max_source_lines: 50\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Validation.MaxSourceLines)
	assert.Equal(t, 8000, cfg.Validation.MaxSourceChars)
	assert.Equal(t, "15s", cfg.Execution.DefaultTimeout)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: [unterminated"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"zero chars", func(c *Config) { c.Validation.MaxSourceChars = 0 }},
		{"negative lines", func(c *Config) { c.Validation.MaxSourceLines = -1 }},
		{"negative frames", func(c *Config) { c.Execution.StackFrames = -2 }},
		{"bad timeout", func(c *Config) { c.Execution.DefaultTimeout = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Execution.DefaultTimeout = "garbage"
	cfg.Execution.SlowCallThreshold = "-1s"
	assert.Equal(t, 15*time.Second, cfg.GetExecutionTimeout())
	assert.Equal(t, 2*time.Second, cfg.GetSlowCallThreshold())
}

func TestHistoryPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "data"
	assert.Equal(t, filepath.Join("data", "history.db"), cfg.HistoryPath())

	cfg.History.DatabasePath = "/tmp/h.db"
	assert.Equal(t, "/tmp/h.db", cfg.HistoryPath())
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	lc := LoggingConfig{}
	assert.True(t, lc.IsCategoryEnabled("registry"))

	lc.Categories = map[string]bool{"sandbox": false}
	assert.False(t, lc.IsCategoryEnabled("sandbox"))
	assert.True(t, lc.IsCategoryEnabled("registry"))
}
