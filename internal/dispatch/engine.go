// Package dispatch implements failover delivery: a message is offered to a
// user's verified channels in priority order until one accepts it.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaharia-lab/courier/internal/notification"
	"github.com/shaharia-lab/courier/internal/storage"
)

const tracerName = "github.com/shaharia-lab/courier/internal/dispatch"

// Recorder observes individual channel attempts.
type Recorder interface {
	ChannelAttempt(ch notification.Channel, delivered bool)
}

// Config holds the engine's collaborators.
type Config struct {
	Preferences storage.PreferenceStore
	Senders     *notification.Registry
	// DeliveryLog is optional. When set, every channel attempt is recorded.
	DeliveryLog storage.DeliveryLogStore
	// Recorder is optional.
	Recorder Recorder
	// Tracer defaults to the global tracer provider.
	Tracer trace.Tracer
	Logger *slog.Logger
}

// Engine delivers a message through the first verified channel that succeeds.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	prefs    storage.PreferenceStore
	senders  *notification.Registry
	log      storage.DeliveryLogStore
	recorder Recorder
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	senders := cfg.Senders
	if senders == nil {
		senders = notification.NewRegistry()
	}
	return &Engine{
		prefs:    cfg.Preferences,
		senders:  senders,
		log:      cfg.DeliveryLog,
		recorder: cfg.Recorder,
		tracer:   tracer,
		logger:   logger,
	}
}

// ChannelsToTry returns the user's priority order restricted to verified
// channels. Relative order is preserved and only the first occurrence of a
// channel counts.
func ChannelsToTry(pref *storage.NotificationPreference) []notification.Channel {
	verified := pref.VerifiedChannels()
	seen := make(map[notification.Channel]bool, len(verified))
	out := make([]notification.Channel, 0, len(verified))
	for _, ch := range pref.PriorityOrder() {
		if _, ok := verified[ch]; !ok || seen[ch] {
			continue
		}
		seen[ch] = true
		out = append(out, ch)
	}
	return out
}

// Send attempts delivery of subject and message to user.
//
// It returns true once a channel accepts the message. It returns false with a
// nil error when the user has no preferences or every eligible channel
// failed; both are final outcomes. A non-nil error means the attempt could not
// be carried out (store failure, canceled context) and may be retried.
func (e *Engine) Send(ctx context.Context, user *storage.User, subject, message string) (bool, error) {
	if user == nil {
		return false, errors.New("dispatch: nil user")
	}

	ctx, span := e.tracer.Start(ctx, "dispatch.Send",
		trace.WithAttributes(attribute.Int64("courier.user_id", user.ID)))
	defer span.End()

	pref, err := e.prefs.GetPreference(ctx, user.ID)
	if errors.Is(err, storage.ErrPreferencesNotFound) {
		e.logger.Error("no notification preferences for user", "user_id", user.ID)
		span.SetAttributes(attribute.String("courier.outcome", "no_preferences"))
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "loading preferences")
		return false, fmt.Errorf("loading preferences for user %d: %w", user.ID, err)
	}

	channels := ChannelsToTry(pref)
	span.SetAttributes(attribute.Int("courier.eligible_channels", len(channels)))

	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "canceled")
			return false, err
		}

		sender, ok := e.senders.Get(ch)
		if !ok {
			e.logger.Debug("no sender registered for channel", "user_id", user.ID, "channel", ch)
			continue
		}

		derr := e.attempt(ctx, sender, ch, pref.Target(ch), subject, message)
		e.record(ctx, user.ID, ch, derr)
		if derr == nil {
			e.logger.Info("notification delivered", "user_id", user.ID, "channel", ch)
			span.SetAttributes(attribute.String("courier.delivered_via", string(ch)))
			return true, nil
		}
		e.logger.Warn("channel delivery failed, trying next",
			"user_id", user.ID, "channel", ch, "error", derr.Reason)
	}

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "canceled")
		return false, err
	}

	e.logger.Error("all notification channels exhausted",
		"user_id", user.ID, "channels_tried", len(channels))
	span.SetAttributes(attribute.String("courier.outcome", "exhausted"))
	return false, nil
}

// attempt performs one channel send and normalizes every failure into a
// *DeliveryError for that channel.
func (e *Engine) attempt(ctx context.Context, sender notification.Sender, ch notification.Channel,
	target, subject, message string) *notification.DeliveryError {
	ctx, span := e.tracer.Start(ctx, "dispatch.attempt",
		trace.WithAttributes(attribute.String("courier.channel", string(ch))))
	defer span.End()

	var derr *notification.DeliveryError
	if strings.TrimSpace(target) == "" {
		derr = &notification.DeliveryError{Channel: ch, Reason: "no target address for verified channel"}
	} else {
		derr = notification.AsDeliveryError(ch, sender.Send(ctx, target, subject, message))
	}

	if derr != nil {
		span.RecordError(derr)
		span.SetStatus(codes.Error, derr.Reason)
	}
	return derr
}

func (e *Engine) record(ctx context.Context, userID int64, ch notification.Channel, derr *notification.DeliveryError) {
	if e.recorder != nil {
		e.recorder.ChannelAttempt(ch, derr == nil)
	}
	if e.log == nil {
		return
	}
	entry := storage.DeliveryLogEntry{
		TaskID:  TaskIDFromContext(ctx),
		UserID:  userID,
		Channel: string(ch),
		Status:  storage.DeliveryDelivered,
	}
	if derr != nil {
		entry.Status = storage.DeliveryFailed
		entry.ErrorMsg = derr.Error()
	}
	// Record the attempt even if the caller has since given up.
	if err := e.log.LogDelivery(context.WithoutCancel(ctx), entry); err != nil {
		e.logger.Warn("failed to write delivery log", "user_id", userID, "channel", ch, "error", err)
	}
}
