// Package service holds the application use cases exposed over HTTP and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shaharia-lab/courier/internal/dispatch"
	"github.com/shaharia-lab/courier/internal/eventbus"
	"github.com/shaharia-lab/courier/internal/notification"
	"github.com/shaharia-lab/courier/internal/scheduler"
	"github.com/shaharia-lab/courier/internal/storage"
	"github.com/shaharia-lab/courier/internal/validation"
)

// NotificationRequest asks for one message to be delivered to one user.
type NotificationRequest struct {
	UserID  int64  `json:"user_id" validate:"required,gt=0"`
	Subject string `json:"subject" validate:"max=255"`
	Message string `json:"message" validate:"required"`
}

// PreferenceSummary is the effective routing for a user.
type PreferenceSummary struct {
	UserID        int64                  `json:"user_id" yaml:"user_id"`
	Priority      []notification.Channel `json:"priority" yaml:"priority"`
	Verified      []notification.Channel `json:"verified" yaml:"verified"`
	ChannelsToTry []notification.Channel `json:"channels_to_try" yaml:"channels_to_try"`
}

// Enqueuer accepts tasks for background delivery.
type Enqueuer interface {
	Enqueue(task scheduler.Task) (string, error)
}

// NotificationService enqueues notifications and exposes delivery history.
type NotificationService interface {
	// Enqueue validates req and hands it to the scheduler, returning the task id.
	Enqueue(ctx context.Context, req NotificationRequest) (string, error)
	// ListDeliveries returns the most recent channel attempts.
	ListDeliveries(ctx context.Context, limit int) ([]storage.DeliveryLogEntry, error)
	// ListDeadLetters returns tasks that exhausted their retries.
	ListDeadLetters(ctx context.Context, limit int) ([]*storage.DeadLetter, error)
	// ReplayDeadLetter re-enqueues a dead letter as a fresh task and removes it.
	ReplayDeadLetter(ctx context.Context, id string) (string, error)
	// GetPreferenceSummary reports how a user would be routed right now.
	GetPreferenceSummary(ctx context.Context, userID int64) (*PreferenceSummary, error)
}

type notificationService struct {
	queue       Enqueuer
	prefs       storage.PreferenceStore
	deliveries  storage.DeliveryLogStore
	deadLetters storage.DeadLetterStore
	events      EventPublisher
	logger      *slog.Logger
}

// NotificationServiceConfig holds the dependencies of NewNotificationService.
// DeliveryLog and DeadLetters may be nil, in which case listing returns nothing.
type NotificationServiceConfig struct {
	Queue       Enqueuer
	Preferences storage.PreferenceStore
	DeliveryLog storage.DeliveryLogStore
	DeadLetters storage.DeadLetterStore
	Events      EventPublisher
	Logger      *slog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(cfg NotificationServiceConfig) NotificationService {
	s := &notificationService{
		queue:       cfg.Queue,
		prefs:       cfg.Preferences,
		deliveries:  cfg.DeliveryLog,
		deadLetters: cfg.DeadLetters,
		events:      cfg.Events,
		logger:      cfg.Logger,
	}
	if s.events == nil {
		s.events = nopPublisher{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *notificationService) Enqueue(_ context.Context, req NotificationRequest) (string, error) {
	if err := validation.Struct(req); err != nil {
		return "", toValidationError(err)
	}
	return s.enqueue(scheduler.Task{UserID: req.UserID, Subject: req.Subject, Message: req.Message})
}

func (s *notificationService) enqueue(task scheduler.Task) (string, error) {
	id, err := s.queue.Enqueue(task)
	if errors.Is(err, scheduler.ErrStopped) {
		return "", &UnavailableError{Reason: "scheduler is shutting down"}
	}
	if err != nil {
		return "", fmt.Errorf("enqueueing notification: %w", err)
	}
	s.logger.Info("notification enqueued", "task_id", id, "user_id", task.UserID)
	return id, nil
}

func (s *notificationService) ListDeliveries(ctx context.Context, limit int) ([]storage.DeliveryLogEntry, error) {
	if s.deliveries == nil {
		return []storage.DeliveryLogEntry{}, nil
	}
	entries, err := s.deliveries.ListDeliveries(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing deliveries: %w", err)
	}
	return entries, nil
}

func (s *notificationService) ListDeadLetters(ctx context.Context, limit int) ([]*storage.DeadLetter, error) {
	if s.deadLetters == nil {
		return []*storage.DeadLetter{}, nil
	}
	dls, err := s.deadLetters.ListDeadLetters(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing dead letters: %w", err)
	}
	return dls, nil
}

func (s *notificationService) ReplayDeadLetter(ctx context.Context, id string) (string, error) {
	if s.deadLetters == nil {
		return "", &NotFoundError{Resource: "dead letter", ID: id}
	}
	dl, err := s.deadLetters.GetDeadLetter(ctx, id)
	if errors.Is(err, storage.ErrDeadLetterNotFound) {
		return "", &NotFoundError{Resource: "dead letter", ID: id}
	}
	if err != nil {
		return "", fmt.Errorf("loading dead letter %q: %w", id, err)
	}

	taskID, err := s.enqueue(scheduler.Task{UserID: dl.UserID, Subject: dl.Subject, Message: dl.Message})
	if err != nil {
		return "", err
	}

	// The task is already queued; a leftover row only risks a second replay.
	if err := s.deadLetters.DeleteDeadLetter(ctx, id); err != nil && !errors.Is(err, storage.ErrDeadLetterNotFound) {
		s.logger.Warn("failed to delete replayed dead letter", "dead_letter_id", id, "task_id", taskID, "error", err)
	}

	s.events.Publish(eventbus.DeadLetterReplayed, map[string]string{
		"dead_letter_id":   id,
		"original_task_id": dl.TaskID,
		"task_id":          taskID,
		"user_id":          strconv.FormatInt(dl.UserID, 10),
	})
	return taskID, nil
}

func (s *notificationService) GetPreferenceSummary(ctx context.Context, userID int64) (*PreferenceSummary, error) {
	pref, err := s.prefs.GetPreference(ctx, userID)
	if errors.Is(err, storage.ErrPreferencesNotFound) {
		return nil, &NotFoundError{Resource: "preferences", ID: strconv.FormatInt(userID, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("loading preferences for user %d: %w", userID, err)
	}

	verified := make([]notification.Channel, 0, 3)
	for _, ch := range notification.DefaultOrder() {
		if pref.IsVerified(ch) {
			verified = append(verified, ch)
		}
	}
	return &PreferenceSummary{
		UserID:        userID,
		Priority:      pref.PriorityOrder(),
		Verified:      verified,
		ChannelsToTry: dispatch.ChannelsToTry(pref),
	}, nil
}

func toValidationError(err error) error {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		return &ValidationError{Message: err.Error()}
	}
	fields := verr.Fields()
	if len(fields) == 1 {
		for f, msg := range fields {
			return &ValidationError{Field: f, Message: msg, Fields: fields}
		}
	}
	return &ValidationError{Message: verr.Error(), Fields: fields}
}
