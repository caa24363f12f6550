package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddRejectsBadSpec(t *testing.T) {
	s := New()
	err := s.Add("badges", "not a cron spec", func(ctx context.Context) error { return nil })
	require.Error(t, err)
}

func TestAddReplacesExistingJob(t *testing.T) {
	s := New()

	require.NoError(t, s.Add("badges", "* * * * *", func(ctx context.Context) error { return nil }))
	require.NoError(t, s.Add("badges", "*/5 * * * *", func(ctx context.Context) error { return nil }))

	require.Len(t, s.cron.Entries(), 1)
}

func TestRunExecutesJob(t *testing.T) {
	s := New()

	var calls atomic.Int64
	s.run("badges", func(ctx context.Context) error {
		calls.Add(1)
		require.NotNil(t, ctx)
		return nil
	})
	require.Equal(t, int64(1), calls.Load())
}

func TestRunSwallowsJobError(t *testing.T) {
	s := New()

	// A failing job must not panic or propagate.
	s.run("feed", func(ctx context.Context) error {
		return errors.New("upstream down")
	})
}

func TestRunAppliesTimeout(t *testing.T) {
	s := New(WithJobTimeout(10 * time.Millisecond))

	done := make(chan error, 1)
	s.run("slow", func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	})

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("job context never expired")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	s := New()
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}
