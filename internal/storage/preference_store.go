package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shaharia-lab/courier/internal/notification"
)

// Sentinel errors returned by the stores.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrPreferencesNotFound = errors.New("notification preferences not configured")
	ErrDeadLetterNotFound  = errors.New("dead letter not found")
)

// User is a notification recipient.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationPreference holds a user's contact points per channel, their
// verification state, and the order in which channels should be tried.
// An empty identifier means the contact point is absent.
type NotificationPreference struct {
	UserID            int64                  `json:"user_id"`
	Email             string                 `json:"email,omitempty"`
	Phone             string                 `json:"phone,omitempty"`
	MessagingHandle   string                 `json:"messaging_handle,omitempty"`
	EmailVerified     bool                   `json:"email_verified"`
	PhoneVerified     bool                   `json:"phone_verified"`
	MessagingVerified bool                   `json:"messaging_verified"`
	Priority          []notification.Channel `json:"priority"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// Target returns the contact identifier for ch, or "" if none is set.
func (p *NotificationPreference) Target(ch notification.Channel) string {
	switch ch {
	case notification.ChannelEmail:
		return p.Email
	case notification.ChannelSMS:
		return p.Phone
	case notification.ChannelMessaging:
		return p.MessagingHandle
	}
	return ""
}

// IsVerified reports whether ch has a non-empty identifier and is verified.
// Each channel is evaluated on its own fields only.
func (p *NotificationPreference) IsVerified(ch notification.Channel) bool {
	switch ch {
	case notification.ChannelEmail:
		return p.Email != "" && p.EmailVerified
	case notification.ChannelSMS:
		return p.Phone != "" && p.PhoneVerified
	case notification.ChannelMessaging:
		return p.MessagingHandle != "" && p.MessagingVerified
	}
	return false
}

// VerifiedChannels returns the set of channels the user can be reached on.
func (p *NotificationPreference) VerifiedChannels() map[notification.Channel]struct{} {
	set := make(map[notification.Channel]struct{}, 3)
	for _, ch := range notification.DefaultOrder() {
		if p.IsVerified(ch) {
			set[ch] = struct{}{}
		}
	}
	return set
}

// PriorityOrder returns the user's configured priority, or the default
// order when none is configured.
func (p *NotificationPreference) PriorityOrder() []notification.Channel {
	if len(p.Priority) == 0 {
		return notification.DefaultOrder()
	}
	out := make([]notification.Channel, len(p.Priority))
	copy(out, p.Priority)
	return out
}

// UserStore resolves notification recipients.
type UserStore interface {
	// GetUser returns the user with id, or ErrUserNotFound.
	GetUser(ctx context.Context, id int64) (*User, error)
	// SaveUser creates or updates a user.
	SaveUser(ctx context.Context, u *User) error
}

// PreferenceStore is the read-only preference lookup used during dispatch.
type PreferenceStore interface {
	// GetPreference returns the preferences for userID, or ErrPreferencesNotFound.
	GetPreference(ctx context.Context, userID int64) (*NotificationPreference, error)
}
