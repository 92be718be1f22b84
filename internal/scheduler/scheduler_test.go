package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func noop(context.Context) error { return nil }

func TestNewInvalidTimezone(t *testing.T) {
	_, err := New("Mars/Olympus_Mons", 0, nil)
	assert.ErrorContains(t, err, "invalid timezone")
}

func TestAddJobs(t *testing.T) {
	s, err := New("UTC", time.Minute, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, s.AddJob("send", "*/5 * * * *", noop))
	require.NoError(t, s.AddDailyJob("morning", "07:30", noop))

	assert.ErrorContains(t, s.AddJob("send", "0 * * * *", noop), "already scheduled")
	assert.ErrorContains(t, s.AddJob("bad", "not a schedule", noop), "failed to schedule job bad")
	assert.ErrorContains(t, s.AddDailyJob("late", "25:00", noop), "invalid time format")

	jobs := s.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "morning", jobs[0].Name)
	assert.Equal(t, "send", jobs[1].Name)
}

func TestRunNowAppliesTimeout(t *testing.T) {
	s, err := New("UTC", time.Minute, zaptest.NewLogger(t))
	require.NoError(t, err)

	err = s.RunNow("check", func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	assert.ErrorIs(t, s.RunNow("fail", func(context.Context) error { return boom }), boom)
}

func TestRunNowWithoutTimeout(t *testing.T) {
	s, err := New("Local", 0, nil)
	require.NoError(t, err)

	err = s.RunNow("check", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestStartRunsJobsWithParentContext(t *testing.T) {
	// cron's own goroutine may still log after Stop returns
	s, err := New("UTC", 0, zap.NewNop())
	require.NoError(t, err)

	type key struct{}
	ran := make(chan any, 4)
	require.NoError(t, s.AddJob("tick", "@every 1s", func(ctx context.Context) error {
		ran <- ctx.Value(key{})
		return nil
	}))

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "parent"))
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	select {
	case v := <-ran:
		assert.Equal(t, "parent", v)
	case <-time.After(5 * time.Second):
		t.Fatal("job never ran")
	}

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.False(t, jobs[0].NextRun.IsZero())
}
