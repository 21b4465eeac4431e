// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/domain/session/store"
	"github.com/ManuGH/topod/internal/persistence/sqlite"
)

// FuncChecker adapts a plain function; a non-nil error is unhealthy.
type FuncChecker struct {
	name string
	fn   func(ctx context.Context) error
}

func NewFuncChecker(name string, fn func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, fn: fn}
}

func (c *FuncChecker) Name() string { return c.name }

func (c *FuncChecker) Check(ctx context.Context) CheckResult {
	if err := c.fn(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// HistoryReader is the part of the command store the checker needs.
type HistoryReader interface {
	Last(ctx context.Context) (model.CommandRecord, error)
}

// StoreChecker verifies the command history answers queries.
type StoreChecker struct {
	backend string
	store   HistoryReader
}

func NewStoreChecker(backend string, s HistoryReader) *StoreChecker {
	return &StoreChecker{backend: backend, store: s}
}

func (c *StoreChecker) Name() string { return "command_history" }

func (c *StoreChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if _, err := c.store.Last(ctx); err != nil && !errors.Is(err, store.ErrNotFound) {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: c.backend}
	}
	return CheckResult{Status: StatusHealthy, Message: c.backend}
}

// SqliteIntegrityChecker runs PRAGMA quick_check against a database file.
// A corrupt database degrades rather than fails readiness: sessions still work
// without history.
type SqliteIntegrityChecker struct {
	path string
}

func NewSqliteIntegrityChecker(path string) *SqliteIntegrityChecker {
	return &SqliteIntegrityChecker{path: path}
}

func (c *SqliteIntegrityChecker) Name() string { return "sqlite_integrity" }

func (c *SqliteIntegrityChecker) Check(ctx context.Context) CheckResult {
	res, err := sqlite.CheckIntegrity(ctx, c.path, sqlite.QuickCheck, sqlite.DefaultMaxProblems)
	if err != nil {
		return CheckResult{Status: StatusDegraded, Error: err.Error()}
	}
	if !res.OK() {
		return CheckResult{Status: StatusDegraded, Error: res.Summary()}
	}
	return CheckResult{Status: StatusHealthy, Message: res.Summary()}
}

// LastRunChecker reports on a periodic job.
type LastRunChecker struct {
	name       string
	maxAge     time.Duration
	getLastRun func() (time.Time, error)
}

// NewLastRunChecker degrades once the last run is older than maxAge.
// A job that has not run yet is healthy.
func NewLastRunChecker(name string, maxAge time.Duration, getLastRun func() (time.Time, error)) *LastRunChecker {
	return &LastRunChecker{name: name, maxAge: maxAge, getLastRun: getLastRun}
}

func (c *LastRunChecker) Name() string { return c.name }

func (c *LastRunChecker) Check(ctx context.Context) CheckResult {
	lastRun, lastErr := c.getLastRun()

	if lastRun.IsZero() {
		return CheckResult{Status: StatusHealthy, Message: "not run yet"}
	}
	if lastErr != nil {
		return CheckResult{Status: StatusDegraded, Error: lastErr.Error(), Message: "last run failed"}
	}
	if c.maxAge > 0 && time.Since(lastRun) > c.maxAge {
		return CheckResult{Status: StatusDegraded, Message: fmt.Sprintf("last successful run over %s ago", c.maxAge)}
	}
	return CheckResult{Status: StatusHealthy, Message: "last run successful"}
}

// SessionsChecker fails readiness while sessions are being drained.
type SessionsChecker struct {
	state func() (active int, draining bool)
}

func NewSessionsChecker(state func() (active int, draining bool)) *SessionsChecker {
	return &SessionsChecker{state: state}
}

func (c *SessionsChecker) Name() string { return "sessions" }

func (c *SessionsChecker) Check(context.Context) CheckResult {
	active, draining := c.state()
	if draining {
		return CheckResult{Status: StatusUnhealthy, Message: fmt.Sprintf("draining %d sessions", active)}
	}
	return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%d active", active)}
}
