package notification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig configures the circuit breaker placed in front of each sender.
type BreakerConfig struct {
	// MaxRequests is the number of trial sends allowed while half-open.
	MaxRequests uint32
	// Interval is the cyclic period after which closed-state counts are cleared.
	Interval time.Duration
	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration
	// FailureRatio trips the breaker once reached, after MinRequests sends.
	FailureRatio float64
	MinRequests  uint32
	// OnStateChange, if set, observes every state transition.
	OnStateChange func(ch Channel, from, to gobreaker.State)
}

// DefaultBreakerConfig returns the defaults used when none are configured.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

// BreakerSender guards a Sender with a circuit breaker. While the circuit is
// open, Send fails immediately with a DeliveryError so failover can move on.
type BreakerSender struct {
	next    Sender
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerSender wraps next with a circuit breaker named after its channel.
func NewBreakerSender(next Sender, cfg BreakerConfig, logger *slog.Logger) *BreakerSender {
	if logger == nil {
		logger = slog.Default()
	}
	ch := next.Channel()
	settings := gobreaker.Settings{
		Name:        string(ch),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("channel", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(ch, from, to)
			}
		},
		// A caller giving up is not a transport failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return &BreakerSender{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Channel implements Sender.
func (b *BreakerSender) Channel() Channel { return b.next.Channel() }

// Send implements Sender.
func (b *BreakerSender) Send(ctx context.Context, target, subject, body string) error {
	_, err := b.breaker.Execute(func() (struct{}, error) {
		sendErr := b.next.Send(ctx, target, subject, body)
		if sendErr != nil && errors.Is(ctx.Err(), context.Canceled) {
			return struct{}{}, ctx.Err()
		}
		return struct{}{}, sendErr
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &DeliveryError{Channel: b.Channel(), Reason: "circuit open"}
	}
	return AsDeliveryError(b.Channel(), err)
}

// State returns the current breaker state.
func (b *BreakerSender) State() gobreaker.State { return b.breaker.State() }
