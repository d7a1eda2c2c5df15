package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Selection.AllChannels)
	assert.Empty(t, cfg.Selection.OnlyChannels)
	assert.False(t, cfg.Attachments.Download)
	assert.Equal(t, 8, cfg.Attachments.MaxConcurrent)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "auto", cfg.Logging.Format)

	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Attachments.MaxConcurrent = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent")

	cfg = DefaultConfig()
	cfg.Logging.Format = "xml"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
selection:
  all_channels: true
  except_dms:
    - D123
attachments:
  download: true
  max_concurrent: 4
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.True(t, cfg.Selection.AllChannels)
	assert.Equal(t, []string{"D123"}, cfg.Selection.ExceptDMs)
	assert.True(t, cfg.Attachments.Download)
	assert.Equal(t, 4, cfg.Attachments.MaxConcurrent)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFilePartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Attachments.MaxConcurrent, "unset keys keep defaults")
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadDefaultReadsEnv(t *testing.T) {
	t.Setenv("EXPLODE_LOGGING_LEVEL", "debug")
	t.Setenv("EXPLODE_ATTACHMENTS_MAX_CONCURRENT", "3")

	cfg, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 3, cfg.Attachments.MaxConcurrent)
}

func TestLoaderSetOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o644))

	loader := NewLoader()
	loader.SetConfigFile(path)
	loader.Set("logging.level", "error")

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadFromFileInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  format: xml\n"), 0o644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}
