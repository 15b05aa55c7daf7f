package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shaharia-lab/courier/internal/dispatch"
	"github.com/shaharia-lab/courier/internal/storage"
)

const deadLetterWriteTimeout = 10 * time.Second

// execute runs one attempt of r with concurrency limiting and decides what
// happens next: done, retry, or dead letter.
func (s *Scheduler) execute(r *taskRun) {
	if !s.claimForRun(r) {
		return
	}
	defer s.running.Done()

	s.semaphore <- struct{}{}
	if s.isStopped() {
		// Queued behind the concurrency limit when Stop came in.
		<-s.semaphore
		if r.lastErr == nil {
			r.lastErr = ErrStopped
		}
		s.deadLetter(r)
		s.wg.Done()
		return
	}
	delivered, err := s.runOnce(r)
	// Release before scheduling a retry so a retry never waits on its own slot.
	<-s.semaphore

	switch {
	case err == nil:
		s.complete(r, delivered)
	case errors.Is(err, storage.ErrUserNotFound):
		s.logger.Error("notification task dropped: user not found",
			"task_id", r.task.ID, "user_id", r.task.UserID)
		s.publish(EventTaskDropped, r, map[string]string{"reason": "user_not_found"})
		s.wg.Done()
	default:
		r.lastErr = err
		s.retryOrDeadLetter(r)
	}
}

// runOnce resolves the user and dispatches. A panic in any collaborator is
// turned into an error so it follows the retry path.
func (s *Scheduler) runOnce(r *taskRun) (delivered bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during dispatch: %v", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.TaskTimeout)
	defer cancel()
	ctx = dispatch.WithTaskID(ctx, r.task.ID)

	s.logger.Debug("executing notification task",
		"task_id", r.task.ID, "user_id", r.task.UserID, "attempt", r.retries+1)

	user, err := s.cfg.Users.GetUser(ctx, r.task.UserID)
	if err != nil {
		return false, err
	}
	return s.cfg.Dispatcher.Send(ctx, user, r.task.Subject, r.task.Message)
}

func (s *Scheduler) complete(r *taskRun, delivered bool) {
	if delivered {
		s.publish(EventTaskDelivered, r, nil)
	} else {
		// The dispatcher already logged why; a clean false is final.
		s.publish(EventTaskUndelivered, r, nil)
	}
	s.logger.Debug("notification task finished",
		"task_id", r.task.ID, "delivered", delivered, "attempts", r.retries+1)
	s.wg.Done()
}

func (s *Scheduler) retryOrDeadLetter(r *taskRun) {
	if r.retries >= s.policy.MaxRetries {
		s.deadLetter(r)
		s.wg.Done()
		return
	}

	delay := s.policy.nextDelay(r.backoff)
	r.retries++
	s.logger.Warn("notification task failed, retry scheduled",
		"task_id", r.task.ID, "user_id", r.task.UserID,
		"attempt", r.retries, "delay", delay, "error", r.lastErr)
	s.publish(EventTaskRetryScheduled, r, map[string]string{
		"delay": delay.String(),
		"error": r.lastErr.Error(),
	})

	if err := s.schedule(r, delay); err != nil {
		s.logger.Error("could not schedule retry", "task_id", r.task.ID, "error", err)
		s.deadLetter(r)
		s.wg.Done()
	}
}

// deadLetter records r as permanently failed. The caller owns wg.Done.
func (s *Scheduler) deadLetter(r *taskRun) {
	attempts := r.retries + 1
	lastErr := ""
	if r.lastErr != nil {
		lastErr = r.lastErr.Error()
	}

	s.logger.Error("notification task dead-lettered",
		"task_id", r.task.ID, "user_id", r.task.UserID,
		"attempts", attempts, "error", lastErr)

	if s.cfg.DeadLetters != nil {
		ctx, cancel := context.WithTimeout(context.Background(), deadLetterWriteTimeout)
		defer cancel()
		dl := &storage.DeadLetter{
			TaskID:    r.task.ID,
			UserID:    r.task.UserID,
			Subject:   r.task.Subject,
			Message:   r.task.Message,
			Attempts:  attempts,
			LastError: lastErr,
		}
		if err := s.cfg.DeadLetters.CreateDeadLetter(ctx, dl); err != nil {
			s.logger.Error("failed to store dead letter", "task_id", r.task.ID, "error", err)
		}
	}

	s.publish(EventTaskDeadLettered, r, map[string]string{
		"attempts": fmt.Sprintf("%d", attempts),
		"error":    lastErr,
	})
}
