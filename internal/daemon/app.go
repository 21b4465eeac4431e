// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/topod/internal/config"
	"github.com/ManuGH/topod/internal/jobs"
	"github.com/ManuGH/topod/internal/log"
)

// App owns the long-lived runtime: config reloads, scheduled jobs and the
// server Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.ConfigHolder
	scheduler    *jobs.Scheduler
	reloadSignal os.Signal
}

func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.ConfigHolder, scheduler *jobs.Scheduler) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		scheduler:    scheduler,
		reloadSignal: syscall.SIGHUP,
	}
}

// Run blocks until ctx is canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.cfgHolder != nil {
		// Best effort: the daemon runs fine on the startup config.
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).
				Str(log.FieldEvent, "config.watcher_start_failed").
				Msg("failed to start config watcher")
		}
	}

	if a.cfgHolder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, a.reloadSignal)
			defer signal.Stop(hup)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hup:
					a.logger.Info().
						Str(log.FieldEvent, "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal")
					_ = a.cfgHolder.Reload(ctx)
				}
			}
		})
	}

	if a.scheduler != nil {
		g.Go(func() error { return a.scheduler.Run(ctx) })
	}

	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}
