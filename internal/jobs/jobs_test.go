// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/domain/session/store"
	"github.com/ManuGH/topod/internal/health"
	"github.com/ManuGH/topod/internal/metrics"
)

type failingPruner struct{}

func (failingPruner) Prune(context.Context, time.Time) (int64, error) {
	return 0, errors.New("disk full")
}

func TestRetention_PrunesOldRecords(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := st.Append(ctx, model.CommandRecord{SessionID: "s", Kind: "exec", Raw: "exec:nodes"})
		require.NoError(t, err)
	}

	before := metrics.CounterValue(metrics.HistoryPrunedTotal)

	r := NewRetention(st, time.Hour)
	require.NoError(t, r.Run(ctx))
	assert.Equal(t, int64(0), r.Status().Pruned, "fresh records survive")

	// Move the clock past the retention window.
	r.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.NoError(t, r.Run(ctx))
	assert.Equal(t, int64(3), r.Status().Pruned)
	assert.InDelta(t, 3, metrics.CounterValue(metrics.HistoryPrunedTotal)-before, 0.001)

	list, err := st.List(ctx, store.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRetention_FailureFeedsHealth(t *testing.T) {
	r := NewRetention(failingPruner{}, time.Hour)
	checker := health.NewLastRunChecker(RetentionJobName, 2*time.Hour, r.LastRun)

	assert.Equal(t, health.StatusHealthy, checker.Check(context.Background()).Status, "never run")

	err := r.Run(context.Background())
	require.ErrorContains(t, err, "disk full")
	assert.Equal(t, "disk full", r.Status().Error)
	assert.Equal(t, health.StatusDegraded, checker.Check(context.Background()).Status)
}

func TestScheduler_RunsAndStops(t *testing.T) {
	s := NewScheduler()
	var runs atomic.Int32
	done := make(chan struct{}, 1)

	require.NoError(t, s.Add("tick", "@every 1s", func(ctx context.Context) error {
		if runs.Add(1) == 1 {
			done <- struct{}{}
		}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- s.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job never ran")
	}

	cancel()
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.GreaterOrEqual(t, runs.Load(), int32(1))
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := NewScheduler()
	err := s.Add("bad", "every tuesday", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule bad")
}

func TestScheduler_FailedRunCounted(t *testing.T) {
	s := NewScheduler()
	before := metrics.CounterValue(metrics.JobRunsTotal.WithLabelValues("flaky", metrics.OutcomeError))
	s.runOnce("flaky", func(context.Context) error { return errors.New("nope") })
	after := metrics.CounterValue(metrics.JobRunsTotal.WithLabelValues("flaky", metrics.OutcomeError))
	assert.InDelta(t, 1, after-before, 0.001)
}

func TestInterval(t *testing.T) {
	d, err := Interval("@every 1h")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	d, err = Interval("*/15 * * * *")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, d)

	_, err = Interval("nope")
	assert.Error(t, err)
}
