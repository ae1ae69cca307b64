package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/venue?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5, cfg.SignupRateLimit)
	assert.Equal(t, 5*time.Minute, cfg.SignupRateWindow)
	assert.Equal(t, "JAX Darts Bar Event", cfg.CalendarName)
	assert.Equal(t, "JAX Darts Bar", cfg.DefaultLocation)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.TrustedProxies)
	assert.False(t, cfg.UploadsEnabled())
	assert.False(t, cfg.MailEnabled())
}

func TestLoadTrustedProxies(t *testing.T) {
	setRequired(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.1 ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.1"}, cfg.TrustedProxies)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET_KEY", "secret")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"port not a number", "SERVER_PORT", "abc"},
		{"bad duration", "SIGNUP_RATE_WINDOW", "five minutes"},
		{"zero rate limit", "SIGNUP_RATE_LIMIT", "0"},
		{"bad log level", "LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadPartialR2(t *testing.T) {
	setRequired(t)
	t.Setenv("R2_ACCOUNT_ID", "acc")
	t.Setenv("R2_BUCKET_NAME", "media")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "R2_ACCESS_KEY_ID")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PUBLIC_BASE_URL", "https://jaxdarts.example/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://jaxdarts.example", cfg.PublicBaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}
