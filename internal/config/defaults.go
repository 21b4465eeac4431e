// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

const (
	DefaultListen    = ":8090"
	DefaultDataDir   = "data"
	DefaultRetention = 168 * time.Hour
	// DefaultRetentionSchedule is a robfig/cron spec.
	DefaultRetentionSchedule = "@every 1h"
)

// Defaults returns a configuration that is valid without a file or env.
func Defaults() AppConfig {
	return AppConfig{
		Listen:   DefaultListen,
		DataDir:  DefaultDataDir,
		LogLevel: "info",
		Server: ServerFileConfig{
			ReadTimeout:     defaultReadTimeout,
			IdleTimeout:     defaultIdleTimeout,
			MaxHeaderBytes:  defaultMaxHeaderBytes,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		API: APIConfig{RateLimit: 120},
		Session: SessionConfig{
			QueueSize:         32,
			CreateTimeout:     2 * time.Minute,
			ExecTimeout:       30 * time.Second,
			DestroyTimeout:    30 * time.Second,
			TeardownTimeout:   10 * time.Second,
			CancelStartOnStop: true,
			Kinds:             []string{"ring", "star", "mesh", "linear", "tree", "fattree"},
			Modes:             []string{"full", "partial"},
			MaxNodes:          64,
		},
		WS: WSConfig{
			WriteTimeout:    10 * time.Second,
			ReadLimit:       64 << 10,
			FramesPerSecond: 20,
			Burst:           40,
			ReleaseTimeout:  15 * time.Second,
		},
		Engine: EngineConfig{
			Kind: EngineSim,
			Sim:  SimConfig{BootDelay: 200 * time.Millisecond},
			Mininet: MininetConfig{
				Binary:         "mn",
				ControllerAddr: "127.0.0.1:6633",
				StopGrace:      5 * time.Second,
				KillTimeout:    5 * time.Second,
			},
		},
		Store: StoreConfig{Backend: StoreSqlite},
		Notify: NotifyConfig{
			Sinks:   []string{"log"},
			Timeout: 2 * time.Second,
			Redis:   NotifyRedisConfig{Channel: "topod.topology"},
		},
		Jobs: JobsConfig{Retention: RetentionConfig{
			Enabled:  true,
			Schedule: DefaultRetentionSchedule,
			MaxAge:   DefaultRetention,
		}},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}
