package notification_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/shaharia-lab/courier/internal/notification"
)

type fakeMailClient struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeMailClient) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msgs...)
	return nil
}

func newTestEmailSender(t *testing.T, client *fakeMailClient) *notification.EmailSender {
	t.Helper()
	s := notification.NewEmailSender(notification.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		FromAddr: "courier@example.com",
	}, nil)
	notification.SetMailClientFactory(s, func(notification.SMTPConfig) (notification.MailClient, error) {
		return client, nil
	})
	return s
}

func TestEmailSender_Send(t *testing.T) {
	client := &fakeMailClient{}
	s := newTestEmailSender(t, client)

	require.NoError(t, s.Send(context.Background(), "alice@example.com", "Hello", "body text"))
	require.Len(t, client.sent, 1)

	rcpts, err := client.sent[0].GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, rcpts)
	assert.Equal(t, []string{"Hello"}, client.sent[0].GetGenHeader(mail.HeaderSubject))
	assert.Equal(t, notification.ChannelEmail, s.Channel())
}

func TestEmailSender_TransportFailure(t *testing.T) {
	transportErr := errors.New("dial tcp: connection refused")
	s := newTestEmailSender(t, &fakeMailClient{err: transportErr})

	err := s.Send(context.Background(), "alice@example.com", "Hello", "body")

	var de *notification.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, notification.ChannelEmail, de.Channel)
	assert.Contains(t, de.Reason, "connection refused")
	assert.False(t, errors.Is(err, transportErr))
}

func TestEmailSender_InvalidRecipient(t *testing.T) {
	client := &fakeMailClient{}
	s := newTestEmailSender(t, client)

	err := s.Send(context.Background(), "not an address", "Hello", "body")

	var de *notification.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, notification.ChannelEmail, de.Channel)
	assert.Empty(t, client.sent)
}

func TestEmailSender_ClientFactoryFailure(t *testing.T) {
	s := notification.NewEmailSender(notification.SMTPConfig{FromAddr: "courier@example.com"}, nil)
	notification.SetMailClientFactory(s, func(notification.SMTPConfig) (notification.MailClient, error) {
		return nil, errors.New("no hostname")
	})

	err := s.Send(context.Background(), "alice@example.com", "s", "b")

	var de *notification.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.Reason, "no hostname")
}

func TestTLSPolicyFromEncryption(t *testing.T) {
	assert.Equal(t, mail.TLSMandatory, notification.ExportedTLSPolicy("ssl_tls"))
	assert.Equal(t, mail.TLSOpportunistic, notification.ExportedTLSPolicy("starttls"))
	assert.Equal(t, mail.NoTLS, notification.ExportedTLSPolicy("none"))
	assert.Equal(t, mail.NoTLS, notification.ExportedTLSPolicy(""))
}

func TestSMTPConfig_Enabled(t *testing.T) {
	assert.False(t, notification.SMTPConfig{}.Enabled())
	assert.True(t, notification.SMTPConfig{Host: "h", FromAddr: "a@b.c"}.Enabled())
}
