package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "general_log", cfg.LoggerName)
	assert.Equal(t, "debug", cfg.ConsoleLevel)
	assert.Equal(t, "info", cfg.FileLevel)
	assert.Equal(t, "log", cfg.FileMode)
	assert.Empty(t, cfg.FilePath)
	assert.Equal(t, "CRITICAL level triggered", cfg.EmailSubject)
	assert.Equal(t, "localhost", cfg.MailHost)
	assert.Equal(t, "auto", cfg.MailStartTLS)
	assert.Empty(t, cfg.EmailTo)
	assert.Equal(t, []string{"password", "secret", "token"}, cfg.RedactFields)
	assert.Equal(t, "log_records", cfg.RedisStream)
	assert.Equal(t, ":9091", cfg.MetricsAddr)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOGGER_NAME", "billing")
	t.Setenv("LOG_FILE_MODE", "json")
	t.Setenv("LOG_FILE_PATH", "/tmp/billing")
	t.Setenv("CRITICAL_EMAIL_FROM", "alerts@example.com")
	t.Setenv("CRITICAL_EMAIL_TO", "ops@example.com,dev@example.com")
	t.Setenv("CRITICAL_EMAIL_PER_MINUTE", "2.5")
	t.Setenv("MAIL_HOST", "smtp.example.com:587")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "billing", cfg.LoggerName)
	assert.Equal(t, "json", cfg.FileMode)
	assert.Equal(t, "/tmp/billing", cfg.FilePath)
	assert.Equal(t, []string{"ops@example.com", "dev@example.com"}, cfg.EmailTo)
	assert.Equal(t, 2.5, cfg.EmailPerMinute)
	assert.Equal(t, "smtp.example.com:587", cfg.MailHost)
}

func TestLoad_InvalidNumber(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LOG_FILE_MAX_BYTES", "lots")

	_, err := Load()
	require.Error(t, err)
}
