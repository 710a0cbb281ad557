package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_DefaultValues tests that hardcoded defaults are applied correctly.
func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "quotes-service", cfg.App.Name)
	assert.Equal(t, "dev", cfg.App.Version)
	assert.Equal(t, "local", cfg.App.Environment)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, DefaultDatabaseDriver, cfg.Database.Driver)
	assert.Equal(t, DefaultDatabaseDSN, cfg.Database.DSN)
	assert.Equal(t, DefaultRandomRetries, cfg.Catalog.RandomRetries)
	assert.Equal(t, DefaultImporterMaxCount, cfg.Importer.MaxCount)
	assert.Equal(t, DefaultClientRetryMaxAttempts, cfg.Importer.Client.Retry.MaxAttempts)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, "true", cfg.Features["quote-import"])
	assert.Equal(t, "false", cfg.Features["author-cascade-delete"])

	require.NoError(t, cfg.Validate())
}

// TestLoad_DurationParsing tests that duration strings are parsed correctly.
func TestLoad_DurationParsing(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, DefaultAuthCacheTTL, cfg.Auth.CacheTTL)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 100*time.Millisecond, cfg.Importer.Client.Retry.InitialInterval)
}

// TestLoad_EnvVarOverrides tests that environment variables override defaults.
func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("APP_SERVER__PORT", "9090")
	t.Setenv("APP_LOG__LEVEL", "warn")
	t.Setenv("APP_RATE_LIMIT__REDIS__ADDR", "redis:6380")
	t.Setenv("APP_DATABASE__MAX_OPEN_CONNS", "25")
	t.Setenv("APP_TELEMETRY__ENABLED", "true")

	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "redis:6380", cfg.RateLimit.Redis.Addr)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Telemetry.Enabled)
}

// TestLoad_FileLayering tests that the profile file overrides base.yaml and
// env vars override both.
func TestLoad_FileLayering(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "base.yaml"), `
app:
  name: from-base
log:
  level: debug
database:
  driver: memory
auth:
  enabled: true
  api_keys:
    - principal: ops
      key_hash: "$2a$10$abcdefghijklmnopqrstuuabcdefghijklmnopqrstuvwxyzabcde"
`)
	writeFile(t, filepath.Join(dir, "qa.yaml"), `
log:
  level: warn
features:
  author-cascade-delete: "true"
`)

	t.Setenv("APP_APP__NAME", "from-env")

	cfg, err := LoadFrom(dir, "qa")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.App.Name)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "true", cfg.Features["author-cascade-delete"])
	assert.Equal(t, "true", cfg.Features["quote-import"])

	require.Len(t, cfg.Auth.APIKeys, 1)
	assert.Equal(t, "ops", cfg.Auth.APIKeys[0].Principal)
}

// TestLoad_NonExistentProfile tests that a missing profile file doesn't cause errors.
func TestLoad_NonExistentProfile(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "nonexistent")
	require.NoError(t, err)

	assert.Equal(t, "quotes-service", cfg.App.Name)
}

// TestLoad_MalformedFile tests that a YAML syntax error is reported.
func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yaml"), "app: [unclosed")

	_, err := LoadFrom(dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading base config")
}

// TestLoad_LogFileDefaults tests that log file defaults are set correctly.
func TestLoad_LogFileDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir(), "")
	require.NoError(t, err)

	assert.False(t, cfg.Log.File.Enabled)
	assert.Equal(t, "./logs/app.log", cfg.Log.File.Path)
	assert.Equal(t, DefaultLogFileMaxSizeMB, cfg.Log.File.MaxSizeMB)
	assert.Equal(t, DefaultLogFileMaxBackups, cfg.Log.File.MaxBackups)
	assert.Equal(t, DefaultLogFileMaxAgeDays, cfg.Log.File.MaxAgeDays)
	assert.True(t, cfg.Log.File.Compress)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"APP_SERVER__PORT":              "server.port",
		"APP_RATE_LIMIT__ENABLED":       "rate_limit.enabled",
		"APP_IMPORTER__CLIENT__TIMEOUT": "importer.client.timeout",
		"APP_CATALOG__RANDOM_RETRIES":   "catalog.random_retries",
	}

	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, envKey(in))
		})
	}
}

// TestDefaults tests that the defaults map contains expected values.
func TestDefaults(t *testing.T) {
	d := defaults()

	assert.Equal(t, "quotes-service", d["app.name"])
	assert.Equal(t, DefaultServerPort, d["server.port"])
	assert.Equal(t, DefaultDatabaseDriver, d["database.driver"])
	assert.Equal(t, DefaultClientRetryMultiplier, d["importer.client.retry.multiplier"])
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
