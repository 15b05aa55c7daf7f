package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/courier/internal/scheduler"
)

func TestGocronDelayer_RunsOnce(t *testing.T) {
	d, err := scheduler.NewGocronDelayer(newTestLogger())
	require.NoError(t, err)
	d.Start()
	defer d.Shutdown() //nolint:errcheck

	immediate := make(chan struct{}, 2)
	delayed := make(chan time.Time, 2)
	start := time.Now()

	require.NoError(t, d.After(0, func() { immediate <- struct{}{} }))
	require.NoError(t, d.After(50*time.Millisecond, func() { delayed <- time.Now() }))

	select {
	case <-immediate:
	case <-time.After(2 * time.Second):
		t.Fatal("immediate job did not run")
	}

	select {
	case at := <-delayed:
		require.GreaterOrEqual(t, at.Sub(start), 50*time.Millisecond)
	case <-time.After(3 * time.Second):
		t.Fatal("delayed job did not run")
	}

	// Neither job may run a second time.
	select {
	case <-immediate:
		t.Fatal("immediate job ran twice")
	case <-delayed:
		t.Fatal("delayed job ran twice")
	case <-time.After(100 * time.Millisecond):
	}
}
