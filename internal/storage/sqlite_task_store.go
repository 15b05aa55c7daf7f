package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLiteDeadLetterStore implements DeadLetterStore backed by SQLite.
type SQLiteDeadLetterStore struct {
	db *sql.DB
}

// NewSQLiteDeadLetterStore returns a new SQLiteDeadLetterStore.
func NewSQLiteDeadLetterStore(db *sql.DB) *SQLiteDeadLetterStore {
	return &SQLiteDeadLetterStore{db: db}
}

// CreateDeadLetter inserts dl, assigning an ID and timestamp when missing.
func (s *SQLiteDeadLetterStore) CreateDeadLetter(ctx context.Context, dl *DeadLetter) error {
	if dl.ID == "" {
		dl.ID = uuid.New().String()
	}
	if dl.CreatedAt.IsZero() {
		dl.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dead_letters (id, task_id, user_id, subject, message, attempts, last_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		dl.ID, dl.TaskID, dl.UserID, dl.Subject, dl.Message,
		dl.Attempts, dl.LastError, dl.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting dead letter: %w", err)
	}
	return nil
}

// GetDeadLetter returns the dead letter with id, or ErrDeadLetterNotFound.
func (s *SQLiteDeadLetterStore) GetDeadLetter(ctx context.Context, id string) (*DeadLetter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, task_id, user_id, subject, message, attempts, last_error, created_at
		FROM dead_letters WHERE id = ?`, id)
	dl, err := scanDeadLetter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDeadLetterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting dead letter %q: %w", id, err)
	}
	return dl, nil
}

// ListDeadLetters returns dead letters newest first, up to limit.
func (s *SQLiteDeadLetterStore) ListDeadLetters(ctx context.Context, limit int) ([]*DeadLetter, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, user_id, subject, message, attempts, last_error, created_at
		FROM dead_letters
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing dead letters: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := make([]*DeadLetter, 0)
	for rows.Next() {
		dl, err := scanDeadLetter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning dead letter: %w", err)
		}
		out = append(out, dl)
	}
	return out, rows.Err()
}

// DeleteDeadLetter removes the dead letter with id, or returns ErrDeadLetterNotFound.
func (s *SQLiteDeadLetterStore) DeleteDeadLetter(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dead_letters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting dead letter %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting dead letter %q: %w", id, err)
	}
	if n == 0 {
		return ErrDeadLetterNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeadLetter(row rowScanner) (*DeadLetter, error) {
	dl := &DeadLetter{}
	err := row.Scan(&dl.ID, &dl.TaskID, &dl.UserID, &dl.Subject, &dl.Message,
		&dl.Attempts, &dl.LastError, &dl.CreatedAt)
	if err != nil {
		return nil, err
	}
	return dl, nil
}
