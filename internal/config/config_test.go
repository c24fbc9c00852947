package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, 120, cfg.Anthropic.RequestTimeoutSecs)
	assert.Equal(t, 20, cfg.Acquire.BrowserTimeoutSecs)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "fetch-cache.db", cfg.Cache.Path)
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.InDelta(t, 0.7, cfg.Pipeline.ConfidenceThreshold, 0.001)
	assert.Equal(t, 3, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 5, cfg.Pipeline.RateLimitBaseSecs)
	assert.Equal(t, 20, cfg.Pipeline.RequestsPerMinute)
	assert.Equal(t, 5, cfg.Pipeline.Workers)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
pipeline:
  confidence_threshold: 0.5
  workers: 10
acquire:
  disable_browser: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 0.5, cfg.Pipeline.ConfidenceThreshold, 0.001)
	assert.Equal(t, 10, cfg.Pipeline.Workers)
	assert.True(t, cfg.Acquire.DisableBrowser)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Pipeline.MaxRetries)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PROSPECT_LOG_LEVEL", "warn")
	t.Setenv("PROSPECT_ANTHROPIC_KEY", "sk-ant-test")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.Key)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("PROSPECT_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with everything validation needs set.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Pipeline.ConfidenceThreshold = 0.7
	cfg.Pipeline.MaxRetries = 3
	cfg.Pipeline.RequestsPerMinute = 20
	cfg.Pipeline.Workers = 5
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_AllPresent(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("extract"))
	assert.NoError(t, cfg.Validate("batch"))
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidate_MissingKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""

	err := cfg.Validate("extract")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateWorkerBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Pipeline.Workers = 0
	err := cfg.Validate("batch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.workers must be between 1 and 50")

	cfg.Pipeline.Workers = 51
	err = cfg.Validate("batch")
	assert.Error(t, err)

	cfg.Pipeline.Workers = 50
	assert.NoError(t, cfg.Validate("batch"))
}

func TestValidateConfidenceThreshold(t *testing.T) {
	cfg := validDefaults()

	cfg.Pipeline.ConfidenceThreshold = -0.1
	err := cfg.Validate("extract")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "confidence_threshold")

	cfg.Pipeline.ConfidenceThreshold = 1.1
	err = cfg.Validate("extract")
	assert.Error(t, err)

	cfg.Pipeline.ConfidenceThreshold = 1.0
	assert.NoError(t, cfg.Validate("extract"))
}
