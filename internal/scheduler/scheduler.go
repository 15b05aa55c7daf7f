// Package scheduler runs notification tasks in the background and re-runs
// failed dispatches with bounded exponential backoff.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/shaharia-lab/courier/internal/eventbus"
	"github.com/shaharia-lab/courier/internal/storage"
)

// ErrStopped is returned by Enqueue after Stop has been called.
var ErrStopped = errors.New("scheduler stopped")

// EventPublisher allows the scheduler to emit events without depending on a
// concrete event bus implementation.
type EventPublisher interface {
	Publish(eventType string, payload map[string]string)
}

// Dispatcher delivers one message to one user.
type Dispatcher interface {
	Send(ctx context.Context, user *storage.User, subject, message string) (bool, error)
}

// Task is one notification to deliver.
type Task struct {
	ID      string `json:"id"`
	UserID  int64  `json:"user_id"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Config holds the scheduler configuration.
type Config struct {
	Users      storage.UserStore
	Dispatcher Dispatcher
	// DeadLetters is optional. When nil, exhausted tasks are only logged and published.
	DeadLetters storage.DeadLetterStore
	// Delayer defaults to a GocronDelayer owned by the scheduler.
	Delayer        Delayer
	Policy         RetryPolicy
	MaxConcurrency int
	// TaskTimeout bounds a single execution. Defaults to two minutes.
	TaskTimeout time.Duration
	// EventPublisher is optional. When set, task lifecycle events are published.
	EventPublisher EventPublisher
	Logger         *slog.Logger
}

// Scheduler executes notification tasks with retry.
type Scheduler struct {
	cfg       Config
	policy    RetryPolicy
	delayer   Delayer
	cron      *GocronDelayer // set when the scheduler owns its delayer
	semaphore chan struct{}
	logger    *slog.Logger

	mu      sync.Mutex
	pending map[*taskRun]struct{} // queued but not yet started
	stopped bool
	wg      sync.WaitGroup // tasks without a final outcome
	running sync.WaitGroup // executions that claimed their task
}

// taskRun carries the retry state of one task across executions.
type taskRun struct {
	task    Task
	retries int
	backoff *backoff.ExponentialBackOff
	lastErr error
}

// New creates a new Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Users == nil || cfg.Dispatcher == nil {
		return nil, errors.New("scheduler: Users and Dispatcher are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		cfg:     cfg,
		policy:  cfg.Policy.withDefaults(),
		delayer: cfg.Delayer,
		logger:  logger,
		pending: make(map[*taskRun]struct{}),
	}
	if s.delayer == nil {
		d, err := NewGocronDelayer(logger)
		if err != nil {
			return nil, err
		}
		s.delayer = d
		s.cron = d
	}

	maxConc := cfg.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 4
	}
	s.semaphore = make(chan struct{}, maxConc)
	if s.cfg.TaskTimeout <= 0 {
		s.cfg.TaskTimeout = 2 * time.Minute
	}
	return s, nil
}

// Start begins executing queued tasks.
func (s *Scheduler) Start(_ context.Context) error {
	if s.cron != nil {
		s.cron.Start()
	}
	s.logger.Info("notification scheduler started",
		"max_retries", s.policy.MaxRetries, "max_concurrency", cap(s.semaphore))
	return nil
}

// Stop moves tasks still waiting for their next attempt to the dead-letter
// store, waits for attempts already in flight to reach a final outcome and
// then shuts down the delayer. Stop returns only once no execution can touch
// the dead-letter store or the publisher again.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	orphans := make([]*taskRun, 0, len(s.pending))
	for r := range s.pending {
		orphans = append(orphans, r)
		delete(s.pending, r)
	}
	s.mu.Unlock()

	for _, r := range orphans {
		if r.lastErr == nil {
			r.lastErr = ErrStopped
		}
		s.deadLetter(r)
		s.wg.Done()
	}

	// No claim can succeed past this point, so running only shrinks.
	s.running.Wait()

	if s.cron != nil {
		return s.cron.Shutdown()
	}
	return nil
}

// Enqueue schedules task for immediate background execution and returns its id.
// A missing id is assigned.
func (s *Scheduler) Enqueue(task Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	r := &taskRun{task: task, backoff: s.policy.newBackOff()}

	s.wg.Add(1)
	if err := s.schedule(r, 0); err != nil {
		s.wg.Done()
		return "", err
	}
	s.logger.Debug("notification task enqueued", "task_id", task.ID, "user_id", task.UserID)
	return task.ID, nil
}

// Wait blocks until every enqueued task has reached a final outcome or ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// schedule hands r to the delayer, tracking it as pending until it starts.
func (s *Scheduler) schedule(r *taskRun, delay time.Duration) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.pending[r] = struct{}{}
	s.mu.Unlock()

	if err := s.delayer.After(delay, func() { s.execute(r) }); err != nil {
		if !s.claim(r) {
			// Stop already dead-lettered it.
			return nil
		}
		return fmt.Errorf("scheduling task %q: %w", r.task.ID, err)
	}
	return nil
}

// claim removes r from the pending set. It reports false if Stop already
// took ownership of it.
func (s *Scheduler) claim(r *taskRun) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[r]; !ok {
		return false
	}
	delete(s.pending, r)
	return true
}

// claimForRun is claim for an execution. A successful claim is tracked in
// running until the execution calls running.Done.
func (s *Scheduler) claimForRun(r *taskRun) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[r]; !ok {
		return false
	}
	delete(s.pending, r)
	s.running.Add(1)
	return true
}

func (s *Scheduler) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Scheduler) publish(eventType string, r *taskRun, extra map[string]string) {
	if s.cfg.EventPublisher == nil {
		return
	}
	payload := map[string]string{
		"task_id": r.task.ID,
		"user_id": fmt.Sprintf("%d", r.task.UserID),
		"attempt": fmt.Sprintf("%d", r.retries+1),
	}
	for k, v := range extra {
		payload[k] = v
	}
	s.cfg.EventPublisher.Publish(eventType, payload)
}

// Event names re-exported for callers that only import the scheduler.
const (
	EventTaskDelivered      = eventbus.TaskDelivered
	EventTaskUndelivered    = eventbus.TaskUndelivered
	EventTaskDropped        = eventbus.TaskDropped
	EventTaskRetryScheduled = eventbus.TaskRetryScheduled
	EventTaskDeadLettered   = eventbus.TaskDeadLettered
)
