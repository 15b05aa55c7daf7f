package storage

import (
	"context"
	"time"
)

// DeadLetter is a notification task that exhausted its retry budget.
type DeadLetter struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	UserID    int64     `json:"user_id"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
	CreatedAt time.Time `json:"created_at"`
}

// DeadLetterStore persists permanently failed tasks for inspection and replay.
type DeadLetterStore interface {
	CreateDeadLetter(ctx context.Context, dl *DeadLetter) error
	GetDeadLetter(ctx context.Context, id string) (*DeadLetter, error)
	ListDeadLetters(ctx context.Context, limit int) ([]*DeadLetter, error)
	DeleteDeadLetter(ctx context.Context, id string) error
}
