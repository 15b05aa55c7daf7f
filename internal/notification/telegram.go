package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// TelegramSender delivers messages through the Telegram Bot API.
type TelegramSender struct {
	config TelegramConfig
	client *http.Client
	logger *slog.Logger
}

// NewTelegramSender creates a TelegramSender for the configured bot.
func NewTelegramSender(config TelegramConfig, logger *slog.Logger) *TelegramSender {
	if config.BaseURL == "" {
		config.BaseURL = defaultTelegramBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultHTTPTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TelegramSender{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// Channel implements Sender.
func (s *TelegramSender) Channel() Channel { return ChannelMessaging }

// Send posts the subject and body to the chat in target. The text goes out
// without a parse mode, so user content containing markup characters is
// delivered verbatim instead of being rejected by the Bot API.
func (s *TelegramSender) Send(ctx context.Context, target, subject, body string) error {
	text := fmt.Sprintf("*%s*\n\n%s", subject, body)
	if err := s.sendMessage(ctx, target, text); err != nil {
		s.logger.Error("telegram delivery failed", "chat_id", target, "error", err)
		return NewDeliveryError(ChannelMessaging, err)
	}
	s.logger.Info("telegram delivered", "chat_id", target)
	return nil
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

func (s *TelegramSender) apiURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(s.config.BaseURL, "/"), s.config.BotToken, method)
}

func (s *TelegramSender) sendMessage(ctx context.Context, chatID, text string) error {
	payload, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL("sendMessage"), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// Do not leak the bot token embedded in the URL.
		return fmt.Errorf("calling Telegram sendMessage: %s", strings.ReplaceAll(err.Error(), s.config.BotToken, "***"))
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var tgResp telegramResponse
	if err := json.Unmarshal(respBody, &tgResp); err != nil {
		return fmt.Errorf("parsing response (HTTP %d): %w", resp.StatusCode, err)
	}
	if !tgResp.OK {
		return fmt.Errorf("telegram API error: %s", tgResp.Description)
	}
	return nil
}
