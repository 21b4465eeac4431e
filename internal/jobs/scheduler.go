// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package jobs runs periodic maintenance for the daemon.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/ManuGH/topod/internal/log"
	"github.com/ManuGH/topod/internal/metrics"
)

// Func is a unit of scheduled work. The context is canceled on shutdown.
type Func func(ctx context.Context) error

// Scheduler runs registered jobs on cron specs. Overlapping runs of the same
// job are skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler() *Scheduler {
	logger := log.WithComponent("jobs")
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers fn under name. spec accepts standard 5-field expressions and
// descriptors such as "@every 1h".
func (s *Scheduler) Add(name, spec string, fn Func) error {
	_, err := s.cron.AddFunc(spec, func() { s.runOnce(name, fn) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	s.logger.Info().
		Str(log.FieldEvent, "jobs.scheduled").
		Str("job", name).
		Str("spec", spec).
		Msg("job scheduled")
	return nil
}

func (s *Scheduler) runOnce(name string, fn Func) {
	ctx := log.ContextWithJobID(s.ctx, uuid.NewString())
	logger := log.WithComponentFromContext(ctx, "jobs").With().Str("job", name).Logger()

	started := time.Now()
	err := fn(ctx)
	metrics.RecordJobRun(name, started, err)

	if err != nil {
		logger.Error().Err(err).
			Str(log.FieldEvent, "jobs.run_failed").
			Dur("duration", time.Since(started)).
			Msg("job failed")
		return
	}
	logger.Debug().
		Str(log.FieldEvent, "jobs.run_done").
		Dur("duration", time.Since(started)).
		Msg("job finished")
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to return.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info().Str(log.FieldEvent, "jobs.stopped").Msg("scheduler stopped")
	return nil
}

// Interval is the gap between the next two runs of spec.
func Interval(spec string) (time.Duration, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return 0, err
	}
	next := sched.Next(time.Now())
	return sched.Next(next).Sub(next), nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
