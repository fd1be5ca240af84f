package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PUSH_ENCRYPTION_KEY", "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, "./data/lonca.db", cfg.Database.Path)
	assert.Equal(t, 30, cfg.Push.RetentionDays)
	assert.Equal(t, 360, cfg.Maintenance.SweepInterval)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PUSH_ENCRYPTION_KEY", "x")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PUSH_ENCRYPTION_KEY", "")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadParsesOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "8181")
	t.Setenv("PUSH_RETENTION_DAYS", "7")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://lonca.app, https://staging.lonca.app")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Push.RetentionDays)
	assert.Equal(t, []string{"https://lonca.app", "https://staging.lonca.app"}, cfg.CORS.AllowedOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("SERVER_PORT", "not-a-port")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PUSH_RETENTION_DAYS", "0")
	_, err = Load()
	assert.Error(t, err)
}
