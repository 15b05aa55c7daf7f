package storage

import (
	"context"
	"time"
)

// DeliveryStatus is the outcome of one channel attempt.
type DeliveryStatus string

// Delivery status values.
const (
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// DeliveryLogEntry records a single channel attempt made while dispatching.
type DeliveryLogEntry struct {
	ID        int64          `json:"id"`
	TaskID    string         `json:"task_id"`
	UserID    int64          `json:"user_id"`
	Channel   string         `json:"channel"`
	Status    DeliveryStatus `json:"status"`
	ErrorMsg  string         `json:"error_msg"`
	CreatedAt time.Time      `json:"created_at"`
}

// DeliveryLogStore persists the per-channel delivery log.
type DeliveryLogStore interface {
	// LogDelivery records one channel attempt.
	LogDelivery(ctx context.Context, entry DeliveryLogEntry) error
	// ListDeliveries returns the most recent entries, newest first, up to limit.
	ListDeliveries(ctx context.Context, limit int) ([]DeliveryLogEntry, error)
}
