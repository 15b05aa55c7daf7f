package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wneessen/go-mail"
)

// mailClient is the subset of *mail.Client used by EmailSender.
type mailClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailSender delivers messages over SMTP using the go-mail library.
type EmailSender struct {
	config    SMTPConfig
	logger    *slog.Logger
	newClient func(SMTPConfig) (mailClient, error)
}

// NewEmailSender creates an EmailSender for the given SMTP configuration.
func NewEmailSender(config SMTPConfig, logger *slog.Logger) *EmailSender {
	if config.Timeout <= 0 {
		config.Timeout = defaultSMTPTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailSender{config: config, logger: logger, newClient: dialSMTP}
}

// Channel implements Sender.
func (s *EmailSender) Channel() Channel { return ChannelEmail }

// Send delivers a plain-text email to target.
func (s *EmailSender) Send(ctx context.Context, target, subject, body string) error {
	if err := s.send(ctx, target, subject, body); err != nil {
		s.logger.Error("email delivery failed", "to", target, "error", err)
		return NewDeliveryError(ChannelEmail, err)
	}
	s.logger.Info("email delivered", "to", target)
	return nil
}

func (s *EmailSender) send(ctx context.Context, target, subject, body string) error {
	m := mail.NewMsg()
	if err := m.From(s.config.FromAddr); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(strings.TrimSpace(target)); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", target, err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)

	c, err := s.newClient(s.config)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}
	return c.DialAndSendWithContext(ctx, m)
}

func dialSMTP(cfg SMTPConfig) (mailClient, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(tlsPolicyFromEncryption(cfg.Encryption)),
		mail.WithTimeout(cfg.Timeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	return mail.NewClient(cfg.Host, opts...)
}

// tlsPolicyFromEncryption converts the encryption string to a go-mail TLSPolicy.
func tlsPolicyFromEncryption(enc string) mail.TLSPolicy {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory
	case "starttls":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}
