package notification

import (
	"context"
	"errors"
	"fmt"
)

// Sender delivers a message through a single transport.
//
// Send returns nil on success. Every failure is reported as a *DeliveryError
// carrying the sender's channel; transport-specific error types never escape.
// Senders do not retry.
type Sender interface {
	// Channel returns the channel this sender serves.
	Channel() Channel
	// Send delivers subject and body to target, a channel-specific address.
	Send(ctx context.Context, target, subject, body string) error
}

// DeliveryError reports that one channel failed to deliver a message.
type DeliveryError struct {
	Channel Channel
	Reason  string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %s", e.Channel, e.Reason)
}

// NewDeliveryError builds a DeliveryError from an underlying error. Only the
// error text is kept so callers cannot unwrap into transport types.
func NewDeliveryError(ch Channel, err error) *DeliveryError {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return &DeliveryError{Channel: ch, Reason: reason}
}

// AsDeliveryError normalizes err into a *DeliveryError for channel ch.
// It returns nil when err is nil.
func AsDeliveryError(ch Channel, err error) *DeliveryError {
	if err == nil {
		return nil
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		return de
	}
	return NewDeliveryError(ch, err)
}
