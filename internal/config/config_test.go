package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ORT_PORT", "ORT_DB_PATH", "ORT_BASE_URL", "ORT_ADMIN_EMAIL", "ORT_DEV_MODE",
		"ORT_SMTP_HOST", "ORT_SMTP_PORT", "ORT_SMTP_USER", "ORT_SMTP_PASS", "ORT_SMTP_FROM",
		"ORT_LLM_PROVIDER", "OPENAI_API_KEY", "ORT_LLM_MODEL", "ORT_LLM_BASE_URL", "ORT_VALUATION_TIMEOUT",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Setenv("HOME", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.True(t, strings.HasSuffix(cfg.Server.DBPath, "ort.db"), cfg.Server.DBPath)
	assert.False(t, cfg.Server.DevMode)
	assert.Equal(t, "587", cfg.SMTP.Port)
	assert.Equal(t, "openai", cfg.Valuation.Provider)
	assert.Empty(t, cfg.Valuation.Model, "each provider picks its own default model")
	assert.Equal(t, 5*time.Second, cfg.Valuation.Timeout)
	assert.Empty(t, cfg.Valuation.APIKey)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ORT_PORT", "9090")
	t.Setenv("ORT_DB_PATH", "/tmp/test.db")
	t.Setenv("ORT_BASE_URL", "https://ort.example.com/")
	t.Setenv("ORT_ADMIN_EMAIL", " Admin@Example.com ")
	t.Setenv("ORT_DEV_MODE", "true")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ORT_LLM_PROVIDER", "claude")
	t.Setenv("ORT_VALUATION_TIMEOUT", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/test.db", cfg.Server.DBPath)
	assert.Equal(t, "https://ort.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "admin@example.com", cfg.Server.AdminEmail)
	assert.True(t, cfg.Server.DevMode)
	assert.Equal(t, 250*time.Millisecond, cfg.Valuation.Timeout)

	p := cfg.Provider()
	assert.Equal(t, "claude", p.Provider)
	assert.Equal(t, "sk-test", p.APIKey)

	m := cfg.Mail()
	assert.Equal(t, "https://ort.example.com", m.BaseURL)
	assert.True(t, m.DevMode)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "ORT_PORT", "eighty"},
		{"bad timeout", "ORT_VALUATION_TIMEOUT", "soon"},
		{"zero timeout", "ORT_VALUATION_TIMEOUT", "0s"},
		{"bad dev mode", "ORT_DEV_MODE", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{}
	assert.Error(t, cfg.Validate(), "admin email required")

	cfg.Server.AdminEmail = "admin@example.com"
	assert.Error(t, cfg.Validate(), "smtp required outside dev mode")

	cfg.Server.DevMode = true
	assert.NoError(t, cfg.Validate())

	cfg.Server.DevMode = false
	cfg.SMTP.Host = "smtp.example.com"
	assert.NoError(t, cfg.Validate())
}

func TestMailSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("ORT_SMTP_HOST", "smtp.example.com")
	t.Setenv("ORT_SMTP_PORT", "465")
	t.Setenv("ORT_SMTP_FROM", "noreply@example.com")
	t.Setenv("ORT_DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	mail := cfg.Mail()
	assert.True(t, mail.DevMode)
	assert.Equal(t, "smtp.example.com", mail.SMTPHost)
	assert.Equal(t, "http://localhost:8080", mail.BaseURL)

	out := cfg.Outbox()
	assert.True(t, out.IsConfigured())
	assert.Equal(t, "465", out.Port)
	assert.Equal(t, "noreply@example.com", out.From)
}
