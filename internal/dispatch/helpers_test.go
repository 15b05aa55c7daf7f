package dispatch_test

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shaharia-lab/courier/internal/notification"
	"github.com/shaharia-lab/courier/internal/storage"
)

// logCapture is a slog.Handler that keeps every record for inspection.
type logCapture struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *logCapture) Enabled(context.Context, slog.Level) bool { return true }

func (h *logCapture) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *logCapture) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *logCapture) WithGroup(string) slog.Handler      { return h }

func (h *logCapture) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

func newCapturedLogger() (*slog.Logger, *logCapture) {
	h := &logCapture{}
	return slog.New(h), h
}

// callLog records the order in which senders were invoked.
type callLog struct {
	mu    sync.Mutex
	calls []notification.Channel
}

func (c *callLog) add(ch notification.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, ch)
}

func (c *callLog) list() []notification.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notification.Channel(nil), c.calls...)
}

type fakeSender struct {
	ch      notification.Channel
	err     error
	log     *callLog
	targets []string
}

func (f *fakeSender) Channel() notification.Channel { return f.ch }

func (f *fakeSender) Send(_ context.Context, target, _, _ string) error {
	f.targets = append(f.targets, target)
	if f.log != nil {
		f.log.add(f.ch)
	}
	return f.err
}

func failWith(ch notification.Channel, reason string) error {
	return &notification.DeliveryError{Channel: ch, Reason: reason}
}

type memPrefs map[int64]*storage.NotificationPreference

func (m memPrefs) GetPreference(_ context.Context, userID int64) (*storage.NotificationPreference, error) {
	p, ok := m[userID]
	if !ok {
		return nil, storage.ErrPreferencesNotFound
	}
	return p, nil
}

type countingRecorder struct {
	mu       sync.Mutex
	attempts map[notification.Channel][2]int
}

func (r *countingRecorder) ChannelAttempt(ch notification.Channel, delivered bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attempts == nil {
		r.attempts = map[notification.Channel][2]int{}
	}
	c := r.attempts[ch]
	if delivered {
		c[0]++
	} else {
		c[1]++
	}
	r.attempts[ch] = c
}

func allVerified(userID int64) *storage.NotificationPreference {
	return &storage.NotificationPreference{
		UserID:            userID,
		Email:             "user@example.com",
		EmailVerified:     true,
		Phone:             "+15550100",
		PhoneVerified:     true,
		MessagingHandle:   "424242",
		MessagingVerified: true,
	}
}
