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

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, int32(2), cfg.Store.MinConns)
	assert.Equal(t, 10000, cfg.Store.StatementTimeoutMs)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, 100, cfg.Quota.DefaultDailyCap)
	assert.Equal(t, 300, cfg.Cache.TTLSecs)
	assert.Equal(t, 4096, cfg.Cache.MaxSize)
	assert.Equal(t, 4, cfg.Backfill.Concurrency)
	assert.Equal(t, 25, cfg.Backfill.BatchSize)
	assert.InDelta(t, 2.0, cfg.Backfill.RatePerSecond, 0.001)
	assert.Equal(t, 30, cfg.Sweep.MinAgeDays)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 300, cfg.Monitoring.CheckIntervalSecs)
	assert.InDelta(t, 0.5, cfg.Monitoring.FailureRateThreshold, 0.001)
	assert.Equal(t, 100, cfg.Monitoring.MaxFailedBacklog)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
  database_url: guidance.db
log:
  level: debug
  format: console
server:
  port: 9090
quota:
  default_daily_cap: 250
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "guidance.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 250, cfg.Quota.DefaultDailyCap)
	// Defaults still apply for unset values
	assert.Equal(t, 25, cfg.Backfill.BatchSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("GUIDANCE_STORE_DRIVER", "postgres")
	t.Setenv("GUIDANCE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("GUIDANCE_SERVER_PORT", "3000")

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

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = "postgres://localhost/guidance"
	cfg.Quota.DefaultDailyCap = 100
	cfg.Cache.TTLSecs = 300
	cfg.Cache.MaxSize = 4096
	cfg.Backfill.Concurrency = 4
	cfg.Backfill.BatchSize = 25
	cfg.Backfill.RatePerSecond = 2.0
	cfg.Server.Port = 8080
	cfg.Anthropic.Key = "sk-ant-key"
	return cfg
}

func TestValidateServe_AllPresent(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_MissingFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.DatabaseURL = ""
	cfg.Anthropic.Key = ""

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.Contains(t, err.Error(), "at least one provider key is required")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateBadDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("migrate")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be postgres or sqlite")
}

func TestValidateBackfill_AnyProviderKeySuffices(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""
	cfg.Gemini.Key = "g-key"

	assert.NoError(t, cfg.Validate("backfill"))
}

func TestValidateBackfill_ConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Backfill.Concurrency = 0
	err := cfg.Validate("backfill")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "backfill.concurrency must be between 1 and 32")

	cfg.Backfill.Concurrency = 33
	err = cfg.Validate("backfill")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "backfill.concurrency must be between 1 and 32")

	cfg.Backfill.Concurrency = 32
	assert.NoError(t, cfg.Validate("backfill"))
}

func TestValidateBackfill_BatchSizeBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Backfill.BatchSize = 0
	err := cfg.Validate("backfill")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "backfill.batch_size must be between 1 and 500")

	cfg.Backfill.BatchSize = 501
	err = cfg.Validate("backfill")
	assert.Error(t, err)

	cfg.Backfill.BatchSize = 500
	assert.NoError(t, cfg.Validate("backfill"))
}

func TestValidateMigrate_NoProviderKeyNeeded(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""

	assert.NoError(t, cfg.Validate("migrate"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateQuotaCap(t *testing.T) {
	cfg := validDefaults()
	cfg.Quota.DefaultDailyCap = 0

	err := cfg.Validate("status")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "quota.default_daily_cap must be >= 1")
}
