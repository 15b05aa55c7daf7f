package scheduler

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy declares how a failed task is re-executed.
type RetryPolicy struct {
	// MaxRetries is the number of attempts allowed after the first one.
	MaxRetries int
	// InitialInterval is the base delay before the first retry.
	InitialInterval time.Duration
	// MaxInterval caps every individual delay, jitter included.
	MaxInterval time.Duration
	// Multiplier grows the base delay after each retry.
	Multiplier float64
	// RandomizationFactor spreads each delay uniformly over
	// [d*(1-f), d*(1+f)]. It must stay below (m-1)/(m+1) for successive
	// delays to be strictly increasing until the cap is reached; larger
	// values are reduced to half that bound.
	RandomizationFactor float64
}

// DefaultRetryPolicy returns three retries starting at one second, doubling,
// with 25% jitter and a 60 second cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:          3,
		InitialInterval:     time.Second,
		MaxInterval:         60 * time.Second,
		Multiplier:          2,
		RandomizationFactor: 0.25,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = d.InitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = d.MaxInterval
	}
	if p.Multiplier <= 1 {
		p.Multiplier = d.Multiplier
	}
	if p.RandomizationFactor < 0 {
		p.RandomizationFactor = d.RandomizationFactor
	}
	if limit := maxRandomization(p.Multiplier); p.RandomizationFactor >= limit {
		p.RandomizationFactor = limit / 2
	}
	return p
}

// maxRandomization is the exclusive upper bound on the jitter factor for
// multiplier m: the shortest draw of a delay must exceed the longest draw of
// the one before it, d*m*(1-f) > d*(1+f).
func maxRandomization(m float64) float64 {
	return (m - 1) / (m + 1)
}

// newBackOff returns a fresh backoff sequence for one task.
func (p RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = p.RandomizationFactor
	b.Reset()
	return b
}

// nextDelay draws the next delay from b, clamped to the policy's cap.
func (p RetryPolicy) nextDelay(b *backoff.ExponentialBackOff) time.Duration {
	d := b.NextBackOff()
	if d < 0 || d > p.MaxInterval {
		return p.MaxInterval
	}
	return d
}
