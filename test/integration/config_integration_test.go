//go:build integration

package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotes-service/internal/adapters/flags"
	"github.com/jsamuelsen/quotes-service/internal/platform/config"
	"github.com/jsamuelsen/quotes-service/internal/ports"
)

const configDir = "../../configs"

// TestConfig_ShippedProfiles loads the profiles from the repository's
// configs directory.
func TestConfig_ShippedProfiles(t *testing.T) {
	tests := []struct {
		profile string
		check   func(t *testing.T, cfg *config.Config)
	}{
		{
			profile: "local",
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "local", cfg.App.Environment)
				assert.Equal(t, "sqlite", cfg.Database.Driver)
				assert.Equal(t, "pretty", cfg.Log.Format)
				assert.True(t, cfg.Importer.Enabled)

				featureFlags := flags.NewStatic(cfg.Features)
				assert.True(t, featureFlags.IsEnabled(t.Context(), ports.FlagCascadeDelete, false))
			},
		},
		{
			profile: "test",
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "memory", cfg.Database.Driver)
				assert.False(t, cfg.Auth.Enabled)
				assert.False(t, cfg.RateLimit.Enabled)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.profile, func(t *testing.T) {
			cfg, err := config.LoadFrom(configDir, tt.profile)
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())

			// Base values survive the profile overlay.
			assert.Equal(t, "quotes-service", cfg.App.Name)
			assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
			assert.Equal(t, 3, cfg.Importer.Client.Retry.MaxAttempts)

			tt.check(t, cfg)
		})
	}
}

// TestConfig_ProdNeedsSecrets verifies that prod refuses to start until the
// deployment supplies its secrets through the environment.
func TestConfig_ProdNeedsSecrets(t *testing.T) {
	cfg, err := config.LoadFrom(configDir, "prod")
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.dsn")

	t.Setenv("APP_DATABASE__DSN", "postgres://quotes:secret@db:5432/quotes?sslmode=disable")
	t.Setenv("APP_AUTH__ENABLED", "false")

	cfg, err = config.LoadFrom(configDir, "prod")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "redis", cfg.RateLimit.Backend)
	assert.Equal(t, 600, cfg.RateLimit.Requests)
	assert.InDelta(t, 0.1, cfg.Telemetry.SamplingRate, 0.0001)
}

// TestConfig_EnvOverridesNestedKeys verifies the "__" nesting convention.
func TestConfig_EnvOverridesNestedKeys(t *testing.T) {
	t.Setenv("APP_RATE_LIMIT__REDIS__ADDR", "redis.internal:6380")
	t.Setenv("APP_IMPORTER__CLIENT__TIMEOUT", "3s")
	t.Setenv("APP_SERVER__PORT", "9090")

	cfg, err := config.LoadFrom(configDir, "test")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "redis.internal:6380", cfg.RateLimit.Redis.Addr)
	assert.Equal(t, 3*time.Second, cfg.Importer.Client.Timeout)
	assert.Equal(t, 9090, cfg.Server.Port)
}

// TestConfig_MissingProfileFallsBackToBase verifies that an unknown profile
// is not an error.
func TestConfig_MissingProfileFallsBackToBase(t *testing.T) {
	cfg, err := config.LoadFrom(configDir, "staging")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "json", cfg.Log.Format)
}
