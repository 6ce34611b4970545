package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "trainer-service", cfg.App.Name)
	assert.False(t, cfg.App.IsProduction())
	assert.False(t, cfg.Auth.DevBypass)
	assert.True(t, cfg.Auth.AutoProvision)
}

func TestLoadRejectsBypassInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_DEV_BYPASS", "true")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadAllowsBypassOutsideProduction(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_DEV_BYPASS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.DevBypass)
}

func TestDurationHelpers(t *testing.T) {
	identity := IdentityConfig{KeyCacheTTLMinutes: 0, FetchTimeoutSeconds: 0}
	assert.Positive(t, identity.KeyCacheTTL())
	assert.Positive(t, identity.FetchTimeout())

	auth := AuthConfig{SessionTTLHours: 168}
	assert.Equal(t, float64(168), auth.SessionTTL().Hours())
}
