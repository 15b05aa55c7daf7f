package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shaharia-lab/courier/internal/notification"
)

// SQLitePreferenceStore implements PreferenceStore backed by SQLite.
type SQLitePreferenceStore struct {
	db *sql.DB
}

// NewSQLitePreferenceStore returns a new SQLitePreferenceStore.
func NewSQLitePreferenceStore(db *sql.DB) *SQLitePreferenceStore {
	return &SQLitePreferenceStore{db: db}
}

// GetPreference returns the stored preferences for userID.
func (s *SQLitePreferenceStore) GetPreference(ctx context.Context, userID int64) (*NotificationPreference, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, email, phone, messaging_handle,
		       email_verified, phone_verified, messaging_verified,
		       priority, updated_at
		FROM notification_preferences WHERE user_id = ?`, userID)

	p := &NotificationPreference{}
	var email, phone, handle sql.NullString
	var priorityJSON string
	err := row.Scan(
		&p.UserID, &email, &phone, &handle,
		&p.EmailVerified, &p.PhoneVerified, &p.MessagingVerified,
		&priorityJSON, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPreferencesNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting preferences for user %d: %w", userID, err)
	}
	p.Email = email.String
	p.Phone = phone.String
	p.MessagingHandle = handle.String

	var ids []string
	if err := json.Unmarshal([]byte(priorityJSON), &ids); err != nil {
		return nil, fmt.Errorf("decoding priority for user %d: %w", userID, err)
	}
	if p.Priority, err = notification.ParseChannels(ids); err != nil {
		return nil, fmt.Errorf("decoding priority for user %d: %w", userID, err)
	}
	return p, nil
}

// SavePreference creates or replaces the preferences of p.UserID. The user
// row must already exist.
func (s *SQLitePreferenceStore) SavePreference(ctx context.Context, p *NotificationPreference) error {
	return upsertPreference(ctx, s.db, p)
}

func upsertPreference(ctx context.Context, db execer, p *NotificationPreference) error {
	for _, ch := range p.Priority {
		if !ch.Valid() {
			return fmt.Errorf("saving preferences for user %d: unknown channel %q", p.UserID, ch)
		}
	}
	ids := make([]string, len(p.Priority))
	for i, ch := range p.Priority {
		ids[i] = string(ch)
	}
	priorityJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding priority: %w", err)
	}

	p.UpdatedAt = time.Now().UTC()
	_, err = db.ExecContext(ctx, `
		INSERT INTO notification_preferences
			(user_id, email, phone, messaging_handle,
			 email_verified, phone_verified, messaging_verified, priority, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			email = excluded.email,
			phone = excluded.phone,
			messaging_handle = excluded.messaging_handle,
			email_verified = excluded.email_verified,
			phone_verified = excluded.phone_verified,
			messaging_verified = excluded.messaging_verified,
			priority = excluded.priority,
			updated_at = excluded.updated_at`,
		p.UserID, nullString(p.Email), nullString(p.Phone), nullString(p.MessagingHandle),
		p.EmailVerified, p.PhoneVerified, p.MessagingVerified, string(priorityJSON), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving preferences for user %d: %w", p.UserID, err)
	}
	return nil
}
