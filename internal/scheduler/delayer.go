package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Delayer runs fn once after delay. Implementations must not block.
type Delayer interface {
	After(delay time.Duration, fn func()) error
}

// GocronDelayer runs delayed functions as one-shot gocron jobs.
type GocronDelayer struct {
	cron gocron.Scheduler
}

// NewGocronDelayer creates a delayer backed by a new gocron scheduler.
func NewGocronDelayer(logger *slog.Logger) (*GocronDelayer, error) {
	opts := []gocron.SchedulerOption{}
	if logger != nil {
		opts = append(opts, gocron.WithLogger(logger))
	}
	cron, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	return &GocronDelayer{cron: cron}, nil
}

// After schedules fn as a job that runs once and is then removed.
func (d *GocronDelayer) After(delay time.Duration, fn func()) error {
	def := gocron.OneTimeJob(gocron.OneTimeJobStartImmediately())
	if delay > 0 {
		def = gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(time.Now().Add(delay)))
	}
	_, err := d.cron.NewJob(def, gocron.NewTask(fn), gocron.WithLimitedRuns(1))
	if errors.Is(err, gocron.ErrOneTimeJobStartDateTimePast) {
		_, err = d.cron.NewJob(gocron.OneTimeJob(gocron.OneTimeJobStartImmediately()),
			gocron.NewTask(fn), gocron.WithLimitedRuns(1))
	}
	if err != nil {
		return fmt.Errorf("scheduling delayed job: %w", err)
	}
	return nil
}

// Start begins running scheduled jobs.
func (d *GocronDelayer) Start() { d.cron.Start() }

// Shutdown stops the scheduler. Jobs that have not started are discarded.
func (d *GocronDelayer) Shutdown() error { return d.cron.Shutdown() }
