package scheduler_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/shaharia-lab/courier/internal/dispatch"
	"github.com/shaharia-lab/courier/internal/storage"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

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

func (h *logCapture) messages(level slog.Level) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, r := range h.records {
		if r.Level == level {
			out = append(out, r.Message)
		}
	}
	return out
}

// --- Delayer stub ---

// manualDelayer queues delayed functions until the test pumps them.
type manualDelayer struct {
	mu     sync.Mutex
	delays []time.Duration
	queue  []func()
	err    error
}

func (d *manualDelayer) After(delay time.Duration, fn func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.delays = append(d.delays, delay)
	d.queue = append(d.queue, fn)
	return nil
}

// drain runs queued functions, including ones they enqueue, until none remain.
func (d *manualDelayer) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		fn := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()
		fn()
	}
}

// step runs only the functions queued right now.
func (d *manualDelayer) step() {
	d.mu.Lock()
	fns := d.queue
	d.queue = nil
	d.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (d *manualDelayer) recorded() []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Duration(nil), d.delays...)
}

// --- UserStore stub ---

type stubUserStore struct {
	users map[int64]*storage.User
	err   error
}

func (s *stubUserStore) GetUser(_ context.Context, id int64) (*storage.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUserStore) SaveUser(_ context.Context, u *storage.User) error {
	s.users[u.ID] = u
	return nil
}

func usersWith(ids ...int64) *stubUserStore {
	s := &stubUserStore{users: map[int64]*storage.User{}}
	for _, id := range ids {
		s.users[id] = &storage.User{ID: id}
	}
	return s
}

// --- Dispatcher stub ---

type result struct {
	ok    bool
	err   error
	panic any
}

// scriptedDispatcher returns results in order, repeating the last one.
type scriptedDispatcher struct {
	mu      sync.Mutex
	results []result
	calls   int
	taskIDs []string
}

func (d *scriptedDispatcher) Send(ctx context.Context, _ *storage.User, _, _ string) (bool, error) {
	d.mu.Lock()
	i := d.calls
	d.calls++
	d.taskIDs = append(d.taskIDs, dispatch.TaskIDFromContext(ctx))
	if i >= len(d.results) {
		i = len(d.results) - 1
	}
	r := d.results[i]
	d.mu.Unlock()
	if r.panic != nil {
		panic(r.panic)
	}
	return r.ok, r.err
}

func (d *scriptedDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// --- EventPublisher stub ---

type published struct {
	eventType string
	payload   map[string]string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(eventType string, payload map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{eventType: eventType, payload: payload})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.eventType)
	}
	return out
}

func (p *recordingPublisher) last() published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}
