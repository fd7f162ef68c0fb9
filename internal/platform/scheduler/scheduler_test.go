package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()

	s, err := New("Asia/Seoul")
	require.NoError(t, err)
	t.Cleanup(s.Shutdown)
	return s
}

func TestNew_InvalidTimezone(t *testing.T) {
	t.Parallel()

	_, err := New("Not/AZone")
	assert.Error(t, err)
}

func TestScheduler_RegisterCron_InvalidSpec(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	err := s.RegisterCron("bad", "not a cron spec", func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

func TestScheduler_RegisterInterval_InvalidPeriod(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	err := s.RegisterInterval("bad", 0, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestScheduler_RegisterReplaceExisting(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	body := func(ctx context.Context) error { return nil }

	// Default: re-registering the same id replaces the prior registration
	require.NoError(t, s.RegisterCron("job", "0 0 0 * * *", body))
	require.NoError(t, s.RegisterCron("job", "0 30 6 * * *", body))

	jobs := s.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "cron[0 30 6 * * *]", jobs[0].Trigger)

	// Explicitly disabled: duplicate id is an error
	err := s.RegisterCron("job", "0 0 12 * * *", body, WithReplaceExisting(false))
	assert.ErrorIs(t, err, ErrJobExists)
}

func TestScheduler_JobsStatus(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	body := func(ctx context.Context) error { return nil }

	require.NoError(t, s.RegisterCron("token.refresh", "0 0 0 * * *", body))
	require.NoError(t, s.RegisterInterval("heartbeat", time.Hour, body))

	// Before Start no fire time is assigned
	for _, j := range s.Jobs() {
		assert.True(t, j.NextFire.IsZero(), "next fire must be unset before Start")
	}
	assert.False(t, s.Running())

	s.Start()

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	// Sorted by id
	assert.Equal(t, "heartbeat", jobs[0].ID)
	assert.Equal(t, "token.refresh", jobs[1].ID)
	assert.Equal(t, "interval[1h0m0s]", jobs[0].Trigger)
	assert.Equal(t, "cron[0 0 0 * * *]", jobs[1].Trigger)
	for _, j := range jobs {
		assert.True(t, j.NextFire.After(time.Now().Add(-time.Second)), "next fire must be set after Start")
	}
	assert.True(t, s.Running())
	assert.Equal(t, "Asia/Seoul", s.Timezone().String())
}

func TestScheduler_FiresInterval(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	var count atomic.Int32
	require.NoError(t, s.RegisterInterval("tick", time.Second, func(ctx context.Context) error {
		count.Add(1)
		return nil
	}))
	s.Start()

	time.Sleep(2500 * time.Millisecond)

	got := count.Load()
	assert.GreaterOrEqual(t, got, int32(2), "expected at least two firings in 2.5s")
	assert.LessOrEqual(t, got, int32(3))
}

func TestScheduler_OverlapSkippedNotQueued(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	var (
		invocations atomic.Int32
		concurrent  atomic.Int32
		maxSeen     atomic.Int32
	)
	body := func(ctx context.Context) error {
		invocations.Add(1)
		cur := concurrent.Add(1)
		if cur > maxSeen.Load() {
			maxSeen.Store(cur)
		}
		time.Sleep(2200 * time.Millisecond)
		concurrent.Add(-1)
		return nil
	}
	require.NoError(t, s.RegisterInterval("slow", time.Second, body, WithBlocking()))
	s.Start()

	time.Sleep(3500 * time.Millisecond)
	s.Shutdown()

	assert.Equal(t, int32(1), maxSeen.Load(), "maxInstances=1 must never run two invocations concurrently")
	// Fires at ~1s (runs until ~3.2s) and ~2s/~3s are skipped, not queued
	assert.LessOrEqual(t, invocations.Load(), int32(2), "skipped fires must not queue up")
}

func TestScheduler_MaxInstancesAboveOne(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	var (
		concurrent atomic.Int32
		maxSeen    atomic.Int32
	)
	body := func(ctx context.Context) error {
		cur := concurrent.Add(1)
		if cur > maxSeen.Load() {
			maxSeen.Store(cur)
		}
		time.Sleep(2500 * time.Millisecond)
		concurrent.Add(-1)
		return nil
	}
	require.NoError(t, s.RegisterInterval("dual", time.Second, body, WithBlocking(), WithMaxInstances(2)))
	s.Start()

	time.Sleep(3500 * time.Millisecond)
	s.Shutdown()

	assert.Equal(t, int32(2), maxSeen.Load(), "maxInstances=2 must allow two concurrent invocations")
}

func TestScheduler_FailingBodyKeepsFiring(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	var count atomic.Int32
	require.NoError(t, s.RegisterInterval("failing", time.Second, func(ctx context.Context) error {
		count.Add(1)
		return errors.New("boom")
	}))
	s.Start()

	time.Sleep(2500 * time.Millisecond)

	assert.GreaterOrEqual(t, count.Load(), int32(2), "an erroring body must not unregister the job")
	assert.True(t, s.Running(), "an erroring body must not stop the scheduler")
}

func TestScheduler_PanickingBodyKeepsFiring(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	var count atomic.Int32
	require.NoError(t, s.RegisterInterval("panicking", time.Second, func(ctx context.Context) error {
		count.Add(1)
		panic("unexpected state")
	}))
	s.Start()

	time.Sleep(2500 * time.Millisecond)

	assert.GreaterOrEqual(t, count.Load(), int32(2), "a panicking body must not kill the trigger loop")
	assert.True(t, s.Running())
}

func TestScheduler_ShutdownStopsFutureFirings(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	var count atomic.Int32
	require.NoError(t, s.RegisterInterval("tick", time.Second, func(ctx context.Context) error {
		count.Add(1)
		return nil
	}))
	s.Start()

	time.Sleep(1500 * time.Millisecond)
	s.Shutdown()
	assert.False(t, s.Running())

	settled := count.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, settled, count.Load(), "no firings may happen after Shutdown")
}

func TestScheduler_ShutdownDoesNotInterruptInflightBody(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)

	var finished atomic.Bool
	require.NoError(t, s.RegisterInterval("long", time.Second, func(ctx context.Context) error {
		time.Sleep(1500 * time.Millisecond)
		finished.Store(true)
		return nil
	}, WithBlocking()))
	s.Start()

	// Let the first invocation start, then stop the scheduler under it
	time.Sleep(1200 * time.Millisecond)
	s.Shutdown()

	time.Sleep(1500 * time.Millisecond)
	assert.True(t, finished.Load(), "shutdown must not cancel an in-flight body")
}

func TestMisfired(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 8, 13, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		scheduled time.Time
		now       time.Time
		grace     time.Duration
		want      bool
	}{
		{name: "on time", scheduled: base, now: base, grace: 10 * time.Minute, want: false},
		{name: "late but within grace", scheduled: base, now: base.Add(5 * time.Minute), grace: 10 * time.Minute, want: false},
		{name: "exactly at grace still fires", scheduled: base, now: base.Add(10 * time.Minute), grace: 10 * time.Minute, want: false},
		{name: "beyond grace is dropped", scheduled: base, now: base.Add(11 * time.Minute), grace: 10 * time.Minute, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, misfired(tt.scheduled, tt.now, tt.grace))
		})
	}
}
