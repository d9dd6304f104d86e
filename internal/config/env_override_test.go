package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("data dir", func(t *testing.T) {
		t.Setenv("TOOLFORGE_DATA_DIR", "/srv/forge")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/srv/forge", cfg.DataDir)
	})

	t.Run("log level", func(t *testing.T) {
		t.Setenv("TOOLFORGE_LOG_LEVEL", "debug")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Setenv("TOOLFORGE_TIMEOUT", "750ms")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 750*time.Millisecond, cfg.GetExecutionTimeout())
	})

	t.Run("history toggle", func(t *testing.T) {
		t.Setenv("TOOLFORGE_HISTORY", "false")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.False(t, cfg.History.Enabled)
	})

	t.Run("unparseable history toggle is ignored", func(t *testing.T) {
		t.Setenv("TOOLFORGE_HISTORY", "maybe")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.True(t, cfg.History.Enabled)
	})

	t.Run("empty values leave config untouched", func(t *testing.T) {
		t.Setenv("TOOLFORGE_DATA_DIR", "")
		t.Setenv("TOOLFORGE_LISTEN", "")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, ".toolforge", cfg.DataDir)
		assert.Equal(t, "127.0.0.1:8088", cfg.Server.Listen)
	})
}
