// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/topod/internal/log"
	"github.com/ManuGH/topod/internal/metrics"
)

// RetentionJobName labels the history pruning job in logs and metrics.
const RetentionJobName = "history_retention"

// Pruner deletes history records created before cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Status is the outcome of the most recent retention run.
type Status struct {
	LastRun time.Time `json:"last_run"`
	Pruned  int64     `json:"pruned"`
	Error   string    `json:"error,omitempty"`
}

// Retention removes command history older than MaxAge.
type Retention struct {
	pruner Pruner
	maxAge time.Duration
	now    func() time.Time

	mu      sync.Mutex
	status  Status
	lastErr error
}

func NewRetention(p Pruner, maxAge time.Duration) *Retention {
	return &Retention{pruner: p, maxAge: maxAge, now: time.Now}
}

// Run prunes once.
func (r *Retention) Run(ctx context.Context) error {
	cutoff := r.now().Add(-r.maxAge)
	n, err := r.pruner.Prune(ctx, cutoff)

	r.mu.Lock()
	r.status = Status{LastRun: r.now(), Pruned: n}
	r.lastErr = err
	if err != nil {
		r.status.Error = err.Error()
	}
	r.mu.Unlock()

	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	metrics.RecordHistoryPruned(n)
	if n > 0 {
		logger := log.WithComponentFromContext(ctx, "jobs")
		logger.Info().
			Str(log.FieldEvent, "history.pruned").
			Int64("records", n).
			Time("cutoff", cutoff).
			Msg("pruned command history")
	}
	return nil
}

func (r *Retention) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// LastRun reports the last run time and its error for health checks.
func (r *Retention) LastRun() (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status.LastRun, r.lastErr
}
