package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shaharia-lab/courier/internal/eventbus"
)

const alertTimeout = 30 * time.Second

// AlertHandler notifies an operator when a task is dead-lettered. It is
// subscribed to the event bus and ignores every other event type.
type AlertHandler struct {
	sender    Sender
	recipient string
	logger    *slog.Logger
}

// NewAlertHandler creates an AlertHandler that delivers through sender to
// recipient, an address valid for the sender's channel.
func NewAlertHandler(sender Sender, recipient string, logger *slog.Logger) *AlertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertHandler{sender: sender, recipient: recipient, logger: logger}
}

// Handle processes a single bus event.
func (h *AlertHandler) Handle(eventType string, payload map[string]string) {
	if eventType != eventbus.TaskDeadLettered {
		return
	}
	if h.sender == nil || h.recipient == "" {
		return
	}

	subject := fmt.Sprintf("[courier] notification for user %s dead-lettered", payload["user_id"])

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, payload[k]))
	}

	ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
	defer cancel()

	if err := h.sender.Send(ctx, h.recipient, subject, strings.Join(lines, "\n")); err != nil {
		h.logger.Error("operator alert failed", "task_id", payload["task_id"], "error", err)
		return
	}
	h.logger.Info("operator alerted", "task_id", payload["task_id"], "channel", h.sender.Channel())
}

// Listener adapts Handle to an eventbus.Listener.
func (h *AlertHandler) Listener() eventbus.Listener {
	return func(e eventbus.Event) { h.Handle(e.Type, e.Payload) }
}
