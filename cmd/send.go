package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/courier/internal/config"
	"github.com/shaharia-lab/courier/internal/eventbus"
	"github.com/shaharia-lab/courier/internal/service"
)

// outcomeTracker remembers the terminal lifecycle event of each task.
type outcomeTracker struct {
	mu       sync.Mutex
	outcomes map[string]eventbus.Event
}

func newOutcomeTracker() *outcomeTracker {
	return &outcomeTracker{outcomes: make(map[string]eventbus.Event)}
}

func (t *outcomeTracker) listener() eventbus.Listener {
	return eventbus.Filter(func(e eventbus.Event) {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.outcomes[e.Payload["task_id"]] = e
	}, eventbus.TaskDelivered, eventbus.TaskUndelivered, eventbus.TaskDropped, eventbus.TaskDeadLettered)
}

func (t *outcomeTracker) get(taskID string) (eventbus.Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.outcomes[taskID]
	return e, ok
}

// NewSendCmd returns the "send" subcommand that delivers one notification and
// waits for its outcome, retries included.
func NewSendCmd(cfg *config.AppConfig) *cobra.Command {
	var (
		userID  int64
		subject string
		message string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one notification and wait for the result",
		Example: `  courier send --user 42 --subject "Order shipped" --message "Your order is on its way."`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runSend(ctx, cmd, cfg, service.NotificationRequest{
				UserID: userID, Subject: subject, Message: message,
			}, timeout)
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "recipient user id")
	cmd.Flags().StringVar(&subject, "subject", "", "message subject")
	cmd.Flags().StringVar(&message, "message", "", "message body")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "how long to wait for delivery, retries included")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runSend(ctx context.Context, cmd *cobra.Command, cfg *config.AppConfig, req service.NotificationRequest, timeout time.Duration) error {
	tracker := newOutcomeTracker()
	a, err := newApp(ctx, cfg, tracker.listener())
	if err != nil {
		return err
	}
	closed := false
	closeApp := func() {
		if !closed {
			closed = true
			a.Close()
		}
	}
	defer closeApp()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	taskID, err := a.service.Enqueue(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "task %s enqueued\n", taskID)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	waitErr := a.scheduler.Wait(waitCtx)

	// Closing drains the event bus so the outcome listener has run.
	closeApp()

	if waitErr != nil {
		return fmt.Errorf("waiting for task %s: %w", taskID, waitErr)
	}
	e, ok := tracker.get(taskID)
	if !ok {
		return fmt.Errorf("task %s finished without a recorded outcome", taskID)
	}
	switch e.Type {
	case eventbus.TaskDelivered:
		fmt.Fprintf(cmd.OutOrStdout(), "delivered (attempt %s)\n", e.Payload["attempt"])
		return nil
	case eventbus.TaskUndelivered:
		return fmt.Errorf("not delivered: no verified channel accepted the message")
	case eventbus.TaskDropped:
		return fmt.Errorf("dropped: %s", e.Payload["reason"])
	default:
		return fmt.Errorf("dead-lettered after %s attempts: %s", e.Payload["attempts"], e.Payload["error"])
	}
}
