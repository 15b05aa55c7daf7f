package notification

import "github.com/wneessen/go-mail"

// MailClient exposes mailClient to external tests.
type MailClient = mailClient

// SetMailClientFactory replaces the SMTP dialer used by s.
func SetMailClientFactory(s *EmailSender, f func(SMTPConfig) (MailClient, error)) {
	s.newClient = f
}

// ExportedTLSPolicy exposes tlsPolicyFromEncryption.
func ExportedTLSPolicy(enc string) mail.TLSPolicy {
	return tlsPolicyFromEncryption(enc)
}
