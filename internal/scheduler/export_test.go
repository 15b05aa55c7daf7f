package scheduler

import "time"

// ExportedDelays returns the first n retry delays p would produce for one task.
func ExportedDelays(p RetryPolicy, n int) []time.Duration {
	p = p.withDefaults()
	b := p.newBackOff()
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = p.nextDelay(b)
	}
	return out
}

// EffectivePolicy returns p as the scheduler would apply it.
func EffectivePolicy(p RetryPolicy) RetryPolicy { return p.withDefaults() }

// PendingCount reports how many tasks are waiting for their next attempt.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
