package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docwatch/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Poller.Interval)
	assert.Equal(t, 15*time.Minute, cfg.Poller.Retention)
	assert.Equal(t, 60, cfg.Poller.MaxAttempts)
	assert.Equal(t, []string{"html", "pdf", "xlsx", "csv", "json"}, cfg.Poller.LinkKeys)
	assert.False(t, cfg.DB.Enabled())
	assert.Empty(t, cfg.Auth.Secret)
	assert.Equal(t, "reports", cfg.S3.ArtifactPrefix)
	assert.Equal(t, "noop", cfg.Email.Provider)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DOCWATCH_POLLER_INTERVAL", "250ms")
	t.Setenv("DOCWATCH_POLLER_MAX_ATTEMPTS", "3")
	t.Setenv("DOCWATCH_POLLER_BASE_URL", "https://results.example.com/")
	t.Setenv("DOCWATCH_POLLER_LINK_KEYS", " pdf , ,html")
	t.Setenv("DOCWATCH_DB_HOST", "db")
	t.Setenv("DOCWATCH_S3_ARTIFACT_PREFIX", "/out/")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Poller.Interval)
	assert.Equal(t, 3, cfg.Poller.MaxAttempts)
	assert.Equal(t, "https://results.example.com", cfg.Poller.BaseURL)
	assert.Equal(t, []string{"pdf", "html"}, cfg.Poller.LinkKeys)
	assert.True(t, cfg.DB.Enabled())
	assert.Equal(t, "out", cfg.S3.ArtifactPrefix)
}

func TestLoad_PortFallback(t *testing.T) {
	t.Setenv("PORT", "9999")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Port)
}

func TestLoad_RejectsNonPositiveAttempts(t *testing.T) {
	t.Setenv("DOCWATCH_POLLER_MAX_ATTEMPTS", "0")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	db := config.DBConfig{User: "u", Password: "p", Host: "h", Port: 5432, Name: "n", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", db.DSN())
}
