package notification

import "time"

// SMTPConfig holds connection parameters for the email sender.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	FromAddr   string
	Encryption string // "none", "starttls", "ssl_tls"
	Timeout    time.Duration
}

// Enabled reports whether enough is configured to attempt delivery.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.FromAddr != ""
}

// SMSCConfig holds credentials for the SMSC HTTP gateway.
type SMSCConfig struct {
	BaseURL  string
	Login    string
	Password string
	Sender   string
	Timeout  time.Duration
}

// Enabled reports whether gateway credentials are present.
func (c SMSCConfig) Enabled() bool {
	return c.Login != "" && c.Password != ""
}

// TelegramConfig holds the bot credentials for the messaging sender.
type TelegramConfig struct {
	BaseURL  string
	BotToken string
	Timeout  time.Duration
}

// Enabled reports whether a bot token is configured.
func (c TelegramConfig) Enabled() bool {
	return c.BotToken != ""
}

const (
	defaultSMSCBaseURL     = "https://smsc.ru"
	defaultTelegramBaseURL = "https://api.telegram.org"
	defaultHTTPTimeout     = 10 * time.Second
	defaultSMTPTimeout     = 15 * time.Second
)
