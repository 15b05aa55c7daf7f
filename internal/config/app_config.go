// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/shaharia-lab/courier/internal/logger"
	"github.com/shaharia-lab/courier/internal/notification"
	"github.com/shaharia-lab/courier/internal/scheduler"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 8990.
	Port int `envconfig:"PORT" default:"8990"`

	// DataDir is the root data directory. Defaults to ~/.courier.
	DataDir string `envconfig:"COURIER_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogStderr bool   `envconfig:"LOG_STDERR" default:"false"`

	SMTPHost       string        `envconfig:"SMTP_HOST"`
	SMTPPort       int           `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername   string        `envconfig:"SMTP_USERNAME"`
	SMTPPassword   string        `envconfig:"SMTP_PASSWORD"`
	SMTPFrom       string        `envconfig:"SMTP_FROM"`
	SMTPEncryption string        `envconfig:"SMTP_ENCRYPTION" default:"starttls"`
	SMTPTimeout    time.Duration `envconfig:"SMTP_TIMEOUT" default:"15s"`

	SMSCBaseURL  string        `envconfig:"SMSC_BASE_URL"`
	SMSCLogin    string        `envconfig:"SMSC_LOGIN"`
	SMSCPassword string        `envconfig:"SMSC_PASSWORD"`
	SMSCSender   string        `envconfig:"SMSC_SENDER"`
	SMSCTimeout  time.Duration `envconfig:"SMSC_TIMEOUT" default:"10s"`

	TelegramBaseURL  string        `envconfig:"TELEGRAM_BASE_URL"`
	TelegramBotToken string        `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramTimeout  time.Duration `envconfig:"TELEGRAM_TIMEOUT" default:"10s"`

	RetryMaxRetries      int           `envconfig:"RETRY_MAX_RETRIES" default:"3"`
	RetryInitialInterval time.Duration `envconfig:"RETRY_INITIAL_INTERVAL" default:"1s"`
	RetryMaxInterval     time.Duration `envconfig:"RETRY_MAX_INTERVAL" default:"60s"`
	RetryJitter          float64       `envconfig:"RETRY_JITTER" default:"0.25"`

	WorkerConcurrency int           `envconfig:"WORKER_CONCURRENCY" default:"4"`
	TaskTimeout       time.Duration `envconfig:"TASK_TIMEOUT" default:"2m"`

	BreakerEnabled      bool          `envconfig:"BREAKER_ENABLED" default:"true"`
	BreakerTimeout      time.Duration `envconfig:"BREAKER_TIMEOUT" default:"30s"`
	BreakerFailureRatio float64       `envconfig:"BREAKER_FAILURE_RATIO" default:"0.5"`
	BreakerMinRequests  uint32        `envconfig:"BREAKER_MIN_REQUESTS" default:"5"`

	// OTLPEndpoint enables tracing when set (host:port of an OTLP/gRPC collector).
	OTLPEndpoint    string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure    bool    `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	TraceSampleRate float64 `envconfig:"OTEL_TRACES_SAMPLE_RATE" default:"1"`

	// AlertEmail receives an email for every dead-lettered task. Requires SMTP.
	AlertEmail string `envconfig:"ALERT_EMAIL"`
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.courier if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".courier")
	}
	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	return logger.ParseLevel(c.LogLevel)
}

// LogDir returns the path to the log directory.
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DatabasePath returns the path to the SQLite database.
func (c *AppConfig) DatabasePath() string {
	return filepath.Join(c.DataDir, "courier.db")
}

func (c *AppConfig) SMTP() notification.SMTPConfig {
	return notification.SMTPConfig{
		Host:       c.SMTPHost,
		Port:       c.SMTPPort,
		Username:   c.SMTPUsername,
		Password:   c.SMTPPassword,
		FromAddr:   c.SMTPFrom,
		Encryption: c.SMTPEncryption,
		Timeout:    c.SMTPTimeout,
	}
}

func (c *AppConfig) SMSC() notification.SMSCConfig {
	return notification.SMSCConfig{
		BaseURL:  c.SMSCBaseURL,
		Login:    c.SMSCLogin,
		Password: c.SMSCPassword,
		Sender:   c.SMSCSender,
		Timeout:  c.SMSCTimeout,
	}
}

func (c *AppConfig) Telegram() notification.TelegramConfig {
	return notification.TelegramConfig{
		BaseURL:  c.TelegramBaseURL,
		BotToken: c.TelegramBotToken,
		Timeout:  c.TelegramTimeout,
	}
}

// RetryPolicy builds the scheduler retry policy. The multiplier is fixed at 2.
func (c *AppConfig) RetryPolicy() scheduler.RetryPolicy {
	p := scheduler.DefaultRetryPolicy()
	p.MaxRetries = c.RetryMaxRetries
	p.InitialInterval = c.RetryInitialInterval
	p.MaxInterval = c.RetryMaxInterval
	p.RandomizationFactor = c.RetryJitter
	return p
}

// Breaker builds the per-channel circuit breaker settings.
func (c *AppConfig) Breaker() notification.BreakerConfig {
	b := notification.DefaultBreakerConfig()
	if c.BreakerTimeout > 0 {
		b.Timeout = c.BreakerTimeout
	}
	if c.BreakerFailureRatio > 0 {
		b.FailureRatio = c.BreakerFailureRatio
	}
	if c.BreakerMinRequests > 0 {
		b.MinRequests = c.BreakerMinRequests
	}
	return b
}
