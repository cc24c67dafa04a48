package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LoggerName   string `env:"LOGGER_NAME" envDefault:"general_log"`
	ConsoleLevel string `env:"CONSOLE_LOG_LEVEL" envDefault:"debug"`
	ConsoleColor string `env:"CONSOLE_COLOR" envDefault:"auto"`
	FileLevel    string `env:"FILE_LOG_LEVEL" envDefault:"info"`
	FileMode     string `env:"LOG_FILE_MODE" envDefault:"log"`
	FilePath     string `env:"LOG_FILE_PATH"` // without extension; empty picks <cwd>/YYYY_MM_DD_general_log
	FileMaxBytes int64  `env:"LOG_FILE_MAX_BYTES" envDefault:"0"`

	EmailFrom      string   `env:"CRITICAL_EMAIL_FROM"`
	EmailTo        []string `env:"CRITICAL_EMAIL_TO" envSeparator:","`
	EmailSubject   string   `env:"CRITICAL_EMAIL_SUBJECT" envDefault:"CRITICAL level triggered"`
	EmailPerMinute float64  `env:"CRITICAL_EMAIL_PER_MINUTE" envDefault:"0"`
	MailHost       string   `env:"MAIL_HOST" envDefault:"localhost"`
	MailUsername   string   `env:"MAIL_USERNAME"`
	MailPassword   string   `env:"MAIL_PASSWORD"`
	MailStartTLS   string   `env:"MAIL_STARTTLS" envDefault:"auto"`

	RedactFields []string `env:"REDACT_FIELDS" envSeparator:"," envDefault:"password,secret,token"`

	RedisURL      string `env:"REDIS_URL"`
	RedisStream   string `env:"REDIS_STREAM" envDefault:"log_records"`
	RedisMaxLen   int64  `env:"REDIS_STREAM_MAXLEN" envDefault:"0"`
	PostgresURL   string `env:"POSTGRES_URL"`
	PostgresTable string `env:"POSTGRES_TABLE" envDefault:"log_records"`
	ForwardLevel  string `env:"FORWARD_LOG_LEVEL" envDefault:"info"`

	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9091"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
