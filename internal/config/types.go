// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// AppConfig is the full daemon configuration.
type AppConfig struct {
	// Version is taken from the binary, never from the file.
	Version string `yaml:"-"`

	Listen   string `yaml:"listen"`
	DataDir  string `yaml:"data_dir"`
	LogLevel string `yaml:"log_level"`

	Server    ServerFileConfig `yaml:"server"`
	API       APIConfig        `yaml:"api"`
	Session   SessionConfig    `yaml:"session"`
	WS        WSConfig         `yaml:"ws"`
	Engine    EngineConfig     `yaml:"engine"`
	Store     StoreConfig      `yaml:"store"`
	Notify    NotifyConfig     `yaml:"notify"`
	Jobs      JobsConfig       `yaml:"jobs"`
	Telemetry TelemetryConfig  `yaml:"telemetry"`
}

// ServerFileConfig holds the HTTP server timeouts as written in the file.
type ServerFileConfig struct {
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type APIConfig struct {
	// RateLimit is requests per minute per client IP on /api; 0 disables it.
	RateLimit   int      `yaml:"rate_limit"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// SessionConfig feeds every new session. Changes apply to sessions opened after a reload.
type SessionConfig struct {
	QueueSize         int           `yaml:"queue_size"`
	CreateTimeout     time.Duration `yaml:"create_timeout"`
	ExecTimeout       time.Duration `yaml:"exec_timeout"`
	DestroyTimeout    time.Duration `yaml:"destroy_timeout"`
	TeardownTimeout   time.Duration `yaml:"teardown_timeout"`
	CancelStartOnStop bool          `yaml:"cancel_start_on_stop"`

	Kinds    []string `yaml:"kinds"`
	Modes    []string `yaml:"modes"`
	MaxNodes uint     `yaml:"max_nodes"`
}

type WSConfig struct {
	OriginPatterns  []string      `yaml:"origin_patterns"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ReadLimit       int64         `yaml:"read_limit"`
	FramesPerSecond float64       `yaml:"frames_per_second"`
	Burst           int           `yaml:"burst"`
	JSONOnly        bool          `yaml:"json_only"`
	ReleaseTimeout  time.Duration `yaml:"release_timeout"`
}

const (
	EngineSim     = "sim"
	EngineMininet = "mininet"
)

type EngineConfig struct {
	Kind    string        `yaml:"kind"`
	Sim     SimConfig     `yaml:"sim"`
	Mininet MininetConfig `yaml:"mininet"`
}

type SimConfig struct {
	BootDelay time.Duration `yaml:"boot_delay"`
}

type MininetConfig struct {
	Binary          string        `yaml:"binary"`
	WorkDir         string        `yaml:"work_dir"`
	ControllerAddr  string        `yaml:"controller_addr"`
	Cleanup         bool          `yaml:"cleanup"`
	AllowedCommands []string      `yaml:"allowed_commands"`
	StopGrace       time.Duration `yaml:"stop_grace"`
	KillTimeout     time.Duration `yaml:"kill_timeout"`
}

const (
	StoreMemory = "memory"
	StoreSqlite = "sqlite"
	StoreBadger = "badger"
)

type StoreConfig struct {
	Backend string `yaml:"backend"`
	// Path defaults to a file or directory under DataDir.
	Path string `yaml:"path"`
}

type NotifyConfig struct {
	Sinks   []string          `yaml:"sinks"`
	Timeout time.Duration     `yaml:"timeout"`
	HTTP    NotifyHTTPConfig  `yaml:"http"`
	Redis   NotifyRedisConfig `yaml:"redis"`
}

type NotifyHTTPConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type NotifyRedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type JobsConfig struct {
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig drives the command history pruning job.
type RetentionConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Schedule string        `yaml:"schedule"`
	MaxAge   time.Duration `yaml:"max_age"`
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
	Environment  string  `yaml:"environment"`
}
