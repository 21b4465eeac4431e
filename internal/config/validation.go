// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"slices"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/validate"
)

var (
	logLevels   = []string{"trace", "debug", "info", "warn", "error"}
	engineKinds = []string{EngineSim, EngineMininet}
	backends    = []string{StoreMemory, StoreSqlite, StoreBadger}
	sinkNames   = []string{"log", "http", "redis"}
	exporters   = []string{"grpc", "http"}
)

// Validate checks cfg and reports every problem at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.HostPort("listen", cfg.Listen, true)
	v.OneOf("log_level", strings.ToLower(cfg.LogLevel), logLevels)
	v.Directory("data_dir", cfg.DataDir, false)
	v.NonNegative("api.rate_limit", cfg.API.RateLimit)

	validateSession(v, cfg.Session)

	v.PositiveDuration("ws.write_timeout", cfg.WS.WriteTimeout)
	v.PositiveDuration("ws.release_timeout", cfg.WS.ReleaseTimeout)
	if cfg.WS.FramesPerSecond < 0 {
		v.AddError("ws.frames_per_second", "value cannot be negative", cfg.WS.FramesPerSecond)
	}
	v.NonNegative("ws.burst", cfg.WS.Burst)

	v.OneOf("engine.kind", cfg.Engine.Kind, engineKinds)
	if cfg.Engine.Kind == EngineMininet {
		m := cfg.Engine.Mininet
		v.NotEmpty("engine.mininet.binary", m.Binary)
		v.HostPort("engine.mininet.controller_addr", m.ControllerAddr, false)
		v.PositiveDuration("engine.mininet.stop_grace", m.StopGrace)
	}

	v.OneOf("store.backend", cfg.Store.Backend, backends)

	for _, s := range cfg.Notify.Sinks {
		v.OneOf("notify.sinks", s, sinkNames)
		switch s {
		case "http":
			v.URL("notify.http.url", cfg.Notify.HTTP.URL, []string{"http", "https"})
		case "redis":
			v.HostPort("notify.redis.addr", cfg.Notify.Redis.Addr, false)
		}
	}

	if r := cfg.Jobs.Retention; r.Enabled {
		v.PositiveDuration("jobs.retention.max_age", r.MaxAge)
		if _, err := cron.ParseStandard(r.Schedule); err != nil {
			v.AddError("jobs.retention.schedule", err.Error(), r.Schedule)
		}
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, exporters)
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
	}

	return v.Err()
}

func validateSession(v *validate.Validator, s SessionConfig) {
	v.Range("session.queue_size", s.QueueSize, 1, 4096)
	v.PositiveDuration("session.create_timeout", s.CreateTimeout)
	v.PositiveDuration("session.exec_timeout", s.ExecTimeout)
	v.PositiveDuration("session.destroy_timeout", s.DestroyTimeout)
	v.PositiveDuration("session.teardown_timeout", s.TeardownTimeout)

	if len(s.Kinds) == 0 {
		v.AddError("session.kinds", "at least one kind is required", s.Kinds)
	}
	for _, k := range s.Kinds {
		if !slices.Contains(model.BuiltinKinds(), model.TopologyKind(k)) {
			v.AddError("session.kinds", "unknown topology kind "+k, k)
		}
	}
	if len(s.Modes) == 0 {
		v.AddError("session.modes", "at least one mode is required", s.Modes)
	}
	for _, m := range s.Modes {
		if !slices.Contains(model.BuiltinModes(), model.Mode(m)) {
			v.AddError("session.modes", "unknown mode "+m, m)
		}
	}
	if s.MaxNodes == 0 {
		v.AddError("session.max_nodes", "value must be positive", s.MaxNodes)
	}
}

// Vocabulary converts the session vocabulary to the parser's type.
func (s SessionConfig) Vocabulary() model.Vocabulary {
	v := model.Vocabulary{MaxNodes: s.MaxNodes}
	for _, k := range s.Kinds {
		v.Kinds = append(v.Kinds, model.TopologyKind(k))
	}
	for _, m := range s.Modes {
		v.Modes = append(v.Modes, model.Mode(m))
	}
	return v
}
