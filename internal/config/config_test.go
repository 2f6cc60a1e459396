package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()

	cfg := Load()
	assert.Equal(t, "ollama", cfg.Backend)
	assert.Equal(t, ".tidypatch.yaml", cfg.RulesFile)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, 24576, cfg.Budget)
	assert.Equal(t, 3, cfg.ContextLines)
	assert.Equal(t, 2, cfg.MergeWindow)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.Equal(t, 60, cfg.TimeoutSeconds)
	assert.True(t, cfg.RedactSecrets)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 86400, cfg.Cache.TTLSeconds)
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: anthropic
model: claude-haiku-4-5
max_concurrency: 8
cache:
  enabled: false
`), 0o644))

	require.NoError(t, Init(path))
	cfg := Load()
	assert.Equal(t, "anthropic", cfg.Backend)
	assert.Equal(t, "claude-haiku-4-5", cfg.Model)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.False(t, cfg.Cache.Enabled)
	// Untouched keys keep their defaults.
	assert.Equal(t, "text", cfg.Format)
}

func TestEnvOverridesFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: ollama\n"), 0o644))
	t.Setenv("TIDYPATCH_BACKEND", "lmstudio")
	t.Setenv("TIDYPATCH_MERGE_WINDOW", "5")

	require.NoError(t, Init(path))
	cfg := Load()
	assert.Equal(t, "lmstudio", cfg.Backend)
	assert.Equal(t, 5, cfg.MergeWindow)
}

func TestInitRejectsBrokenExplicitFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed\n"), 0o644))
	assert.Error(t, Init(path))
}

func TestInitMissingImplicitFileIsFine(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.NoError(t, Init(""))
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "tidypatch"), dir)
}
