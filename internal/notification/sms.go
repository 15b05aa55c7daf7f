package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// SMSSender delivers text messages through an SMSC-compatible HTTP gateway.
// The subject is not transmitted; only the body is sent.
type SMSSender struct {
	config SMSCConfig
	client *http.Client
	logger *slog.Logger
}

// NewSMSSender creates an SMSSender. A zero timeout falls back to 10 seconds.
func NewSMSSender(config SMSCConfig, logger *slog.Logger) *SMSSender {
	if config.BaseURL == "" {
		config.BaseURL = defaultSMSCBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultHTTPTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMSSender{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// Channel implements Sender.
func (s *SMSSender) Channel() Channel { return ChannelSMS }

// Send delivers body to the phone number in target.
func (s *SMSSender) Send(ctx context.Context, target, _, body string) error {
	if err := s.send(ctx, target, body); err != nil {
		s.logger.Error("sms delivery failed", "phone", target, "error", err)
		return NewDeliveryError(ChannelSMS, err)
	}
	s.logger.Info("sms delivered", "phone", target)
	return nil
}

type smscResponse struct {
	ID        *int64 `json:"id,omitempty"`
	Count     int    `json:"cnt,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode *int   `json:"error_code,omitempty"`
}

func (s *SMSSender) send(ctx context.Context, phone, body string) error {
	q := url.Values{}
	q.Set("login", s.config.Login)
	q.Set("psw", s.config.Password)
	q.Set("phones", phone)
	q.Set("mes", body)
	if s.config.Sender != "" {
		q.Set("sender", s.config.Sender)
	}
	q.Set("fmt", "3")

	endpoint := strings.TrimRight(s.config.BaseURL, "/") + "/sys/send.php?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// The URL carries credentials; report only the transport failure.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return fmt.Errorf("calling gateway: %v", uerr.Err)
		}
		return fmt.Errorf("calling gateway: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("gateway returned HTTP %d", resp.StatusCode)
	}

	var out smscResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if out.ErrorCode != nil {
		msg := out.Error
		if msg == "" {
			msg = "unknown"
		}
		return fmt.Errorf("gateway error %d: %s", *out.ErrorCode, msg)
	}
	return nil
}
