// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package daemon wires the topology session controller together and runs it.
package daemon

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/topod/internal/config"
	apihttp "github.com/ManuGH/topod/internal/control/http"
	"github.com/ManuGH/topod/internal/control/middleware"
	"github.com/ManuGH/topod/internal/control/ws"
	sessionmanager "github.com/ManuGH/topod/internal/domain/session/manager"
	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/domain/session/ports"
	"github.com/ManuGH/topod/internal/domain/session/store"
	"github.com/ManuGH/topod/internal/engine/mininet"
	"github.com/ManuGH/topod/internal/engine/sim"
	"github.com/ManuGH/topod/internal/health"
	"github.com/ManuGH/topod/internal/jobs"
	"github.com/ManuGH/topod/internal/log"
	"github.com/ManuGH/topod/internal/notify"
	"github.com/ManuGH/topod/internal/telemetry"
)

// ServiceName identifies the daemon in logs and traces.
const ServiceName = "topod"

// Build constructs every component from the holder's current config and
// registers their cleanup on the returned App's Manager. On error, anything
// already opened is closed again.
func Build(ctx context.Context, holder *config.ConfigHolder) (app *App, err error) {
	if holder == nil {
		return nil, ErrMissingConfig
	}
	cfg := holder.Get()
	logger := log.WithComponent("daemon")

	var cleanups []namedHook
	defer func() {
		if err == nil {
			return
		}
		for i := len(cleanups) - 1; i >= 0; i-- {
			_ = cleanups[i].hook(context.WithoutCancel(ctx))
		}
	}()
	track := func(name string, hook ShutdownHook) {
		cleanups = append(cleanups, namedHook{name: name, hook: hook})
	}

	tp, err := telemetry.NewProvider(ctx, telemetryConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	track("telemetry", tp.Shutdown)

	history, err := store.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open command history: %w", err)
	}
	track("command_history", func(context.Context) error { return history.Close() })

	notifier, err := notify.New(notifyConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("notifier: %w", err)
	}
	track("notifier", func(context.Context) error { return notifier.Close() })

	engine, err := newEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if s, ok := engine.(interface{ Shutdown(context.Context) error }); ok {
		track("engine", s.Shutdown)
	}

	sessions, err := sessionmanager.New(sessionmanager.NewRegistry(), sessionmanager.Deps{
		Engine:   engine,
		Notifier: notifier,
		History:  history,
	}, func() sessionmanager.Config { return sessionConfig(holder.Get()) })
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}
	track("sessions", sessions.Shutdown)

	retention := jobs.NewRetention(history, cfg.Jobs.Retention.MaxAge)
	scheduler := jobs.NewScheduler()
	if cfg.Jobs.Retention.Enabled {
		if err := scheduler.Add(jobs.RetentionJobName, cfg.Jobs.Retention.Schedule, retention.Run); err != nil {
			return nil, err
		}
	}

	hm := health.NewManager(cfg.Version)
	registerChecks(hm, cfg, history, sessions.Registry(), retention)

	router := apihttp.NewRouter(apihttp.Deps{
		Registry:  sessions.Registry(),
		History:   history,
		Health:    hm,
		WebSocket: ws.NewHandler(sessions, func() ws.Config { return wsConfig(holder.Get()) }),
		Vocabulary: func() model.Vocabulary {
			return holder.Get().Session.Vocabulary()
		},
		Stack:                stackConfig(cfg),
		APIRequestsPerMinute: cfg.API.RateLimit,
	})

	mgr, err := NewManager(config.ParseServerConfig(cfg), Deps{Logger: logger, APIHandler: router})
	if err != nil {
		return nil, err
	}
	for _, c := range cleanups {
		mgr.RegisterShutdownHook(c.name, c.hook)
	}

	logger.Info().
		Str(log.FieldEvent, "daemon.built").
		Str("engine", cfg.Engine.Kind).
		Str("store", cfg.Store.Backend).
		Strs("notify", notifier.Sinks()).
		Bool("tracing", cfg.Telemetry.Enabled).
		Msg("daemon components ready")

	return NewApp(logger, mgr, holder, scheduler), nil
}

func newEngine(cfg config.AppConfig) (ports.TopologyEngine, error) {
	switch cfg.Engine.Kind {
	case config.EngineMininet:
		m := cfg.Engine.Mininet
		return mininet.New(mininet.Config{
			Binary:          m.Binary,
			WorkDir:         m.WorkDir,
			ControllerAddr:  m.ControllerAddr,
			Cleanup:         m.Cleanup,
			AllowedCommands: m.AllowedCommands,
			StopGrace:       m.StopGrace,
			KillTimeout:     m.KillTimeout,
		})
	case config.EngineSim, "":
		return sim.New(sim.Config{BootDelay: cfg.Engine.Sim.BootDelay}), nil
	default:
		return nil, fmt.Errorf("unknown engine kind %q", cfg.Engine.Kind)
	}
}

func registerChecks(hm *health.Manager, cfg config.AppConfig, history store.CommandStore, reg *sessionmanager.Registry, retention *jobs.Retention) {
	hm.RegisterChecker(health.NewStoreChecker(cfg.Store.Backend, history))
	if cfg.Store.Backend == config.StoreSqlite {
		hm.RegisterChecker(health.NewSqliteIntegrityChecker(cfg.Store.Path))
	}
	hm.RegisterChecker(health.NewSessionsChecker(func() (int, bool) {
		return reg.Len(), reg.Closing()
	}))
	if cfg.Jobs.Retention.Enabled {
		// Degrade after two missed runs.
		var maxAge time.Duration
		if every, err := jobs.Interval(cfg.Jobs.Retention.Schedule); err == nil {
			maxAge = 2*every + time.Minute
		}
		hm.RegisterChecker(health.NewLastRunChecker(jobs.RetentionJobName, maxAge, retention.LastRun))
	}
	if cfg.Engine.Kind == config.EngineMininet {
		bin := cfg.Engine.Mininet.Binary
		hm.RegisterChecker(health.NewFuncChecker("mininet_binary", func(context.Context) error {
			_, err := exec.LookPath(bin)
			return err
		}))
	}
}

func sessionConfig(cfg config.AppConfig) sessionmanager.Config {
	s := cfg.Session
	return sessionmanager.Config{
		QueueSize:         s.QueueSize,
		CreateTimeout:     s.CreateTimeout,
		ExecTimeout:       s.ExecTimeout,
		DestroyTimeout:    s.DestroyTimeout,
		TeardownTimeout:   s.TeardownTimeout,
		CancelStartOnStop: s.CancelStartOnStop,
		Vocabulary:        s.Vocabulary(),
	}
}

func wsConfig(cfg config.AppConfig) ws.Config {
	w := cfg.WS
	return ws.Config{
		OriginPatterns:  w.OriginPatterns,
		WriteTimeout:    w.WriteTimeout,
		ReadLimit:       w.ReadLimit,
		FramesPerSecond: w.FramesPerSecond,
		Burst:           w.Burst,
		JSONOnly:        w.JSONOnly,
		ReleaseTimeout:  w.ReleaseTimeout,
	}
}

func notifyConfig(cfg config.AppConfig) notify.Config {
	n := cfg.Notify
	return notify.Config{
		Sinks:   n.Sinks,
		Timeout: n.Timeout,
		HTTP:    notify.HTTPConfig{URL: n.HTTP.URL, Token: n.HTTP.Token},
		Redis: notify.RedisConfig{
			Addr:     n.Redis.Addr,
			Password: n.Redis.Password,
			DB:       n.Redis.DB,
			Channel:  n.Redis.Channel,
		},
	}
}

func telemetryConfig(cfg config.AppConfig) telemetry.Config {
	t := cfg.Telemetry
	return telemetry.Config{
		Enabled:        t.Enabled,
		ServiceName:    ServiceName,
		ServiceVersion: cfg.Version,
		Environment:    t.Environment,
		ExporterType:   t.Exporter,
		Endpoint:       t.Endpoint,
		SamplingRate:   t.SamplingRate,
	}
}

func stackConfig(cfg config.AppConfig) middleware.StackConfig {
	sc := middleware.StackConfig{
		EnableCORS:            len(cfg.API.CORSOrigins) > 0,
		AllowedOrigins:        cfg.API.CORSOrigins,
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		EnableLogging:         true,
	}
	if cfg.Telemetry.Enabled {
		sc.TracingService = ServiceName
	}
	return sc
}

// ConfigureLogging sets up the global logger from cfg.
func ConfigureLogging(cfg config.AppConfig) zerolog.Logger {
	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: ServiceName,
		Version: cfg.Version,
	})
	return log.WithComponent("daemon")
}
