// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader resolves an AppConfig from defaults, an optional file and the environment.
type Loader struct {
	configPath string
	version    string
	// ConsumedEnvKeys records every TOPOD_ key the last Load looked at.
	ConsumedEnvKeys map[string]struct{}
}

func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, empty when running from env only.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envString(key, def string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, def)
}

func (l *Loader) envInt(key string, def int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, def)
}

func (l *Loader) envUint(key string, def uint) uint {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseUint(key, def)
}

func (l *Loader) envBool(key string, def bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, def)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, def)
}

func (l *Loader) envList(key string, def []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseStringList(key, def)
}

// Load applies defaults, then the file, then the environment, and validates
// the result. A failed load never returns a partially applied config to use.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)
	resolvePaths(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes path over cfg. Keys missing from the file keep their
// defaults; unknown keys are an error.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- the config path is provided by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.Listen = l.envString("TOPOD_LISTEN", cfg.Listen)
	cfg.DataDir = l.envString("TOPOD_DATA_DIR", cfg.DataDir)
	cfg.LogLevel = l.envString("TOPOD_LOG_LEVEL", cfg.LogLevel)

	cfg.API.RateLimit = l.envInt("TOPOD_API_RATE_LIMIT", cfg.API.RateLimit)
	cfg.API.CORSOrigins = l.envList("TOPOD_API_CORS_ORIGINS", cfg.API.CORSOrigins)

	s := &cfg.Session
	s.QueueSize = l.envInt("TOPOD_SESSION_QUEUE_SIZE", s.QueueSize)
	s.CreateTimeout = l.envDuration("TOPOD_SESSION_CREATE_TIMEOUT", s.CreateTimeout)
	s.ExecTimeout = l.envDuration("TOPOD_SESSION_EXEC_TIMEOUT", s.ExecTimeout)
	s.DestroyTimeout = l.envDuration("TOPOD_SESSION_DESTROY_TIMEOUT", s.DestroyTimeout)
	s.TeardownTimeout = l.envDuration("TOPOD_SESSION_TEARDOWN_TIMEOUT", s.TeardownTimeout)
	s.CancelStartOnStop = l.envBool("TOPOD_SESSION_CANCEL_START_ON_STOP", s.CancelStartOnStop)
	s.Kinds = l.envList("TOPOD_SESSION_KINDS", s.Kinds)
	s.Modes = l.envList("TOPOD_SESSION_MODES", s.Modes)
	s.MaxNodes = l.envUint("TOPOD_SESSION_MAX_NODES", s.MaxNodes)

	ws := &cfg.WS
	ws.OriginPatterns = l.envList("TOPOD_WS_ORIGIN_PATTERNS", ws.OriginPatterns)
	ws.WriteTimeout = l.envDuration("TOPOD_WS_WRITE_TIMEOUT", ws.WriteTimeout)
	ws.FramesPerSecond = l.envFloat("TOPOD_WS_FRAMES_PER_SECOND", ws.FramesPerSecond)
	ws.Burst = l.envInt("TOPOD_WS_BURST", ws.Burst)
	ws.JSONOnly = l.envBool("TOPOD_WS_JSON_ONLY", ws.JSONOnly)

	e := &cfg.Engine
	e.Kind = l.envString("TOPOD_ENGINE", e.Kind)
	e.Sim.BootDelay = l.envDuration("TOPOD_SIM_BOOT_DELAY", e.Sim.BootDelay)
	e.Mininet.Binary = l.envString("TOPOD_MININET_BINARY", e.Mininet.Binary)
	e.Mininet.WorkDir = l.envString("TOPOD_MININET_WORK_DIR", e.Mininet.WorkDir)
	e.Mininet.ControllerAddr = l.envString("TOPOD_MININET_CONTROLLER_ADDR", e.Mininet.ControllerAddr)
	e.Mininet.Cleanup = l.envBool("TOPOD_MININET_CLEANUP", e.Mininet.Cleanup)
	e.Mininet.AllowedCommands = l.envList("TOPOD_MININET_ALLOWED_COMMANDS", e.Mininet.AllowedCommands)
	e.Mininet.StopGrace = l.envDuration("TOPOD_MININET_STOP_GRACE", e.Mininet.StopGrace)

	cfg.Store.Backend = l.envString("TOPOD_STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.Path = l.envString("TOPOD_STORE_PATH", cfg.Store.Path)

	n := &cfg.Notify
	n.Sinks = l.envList("TOPOD_NOTIFY_SINKS", n.Sinks)
	n.Timeout = l.envDuration("TOPOD_NOTIFY_TIMEOUT", n.Timeout)
	n.HTTP.URL = l.envString("TOPOD_NOTIFY_HTTP_URL", n.HTTP.URL)
	n.HTTP.Token = l.envString("TOPOD_NOTIFY_HTTP_TOKEN", n.HTTP.Token)
	n.Redis.Addr = l.envString("TOPOD_NOTIFY_REDIS_ADDR", n.Redis.Addr)
	n.Redis.Password = l.envString("TOPOD_NOTIFY_REDIS_PASSWORD", n.Redis.Password)
	n.Redis.DB = l.envInt("TOPOD_NOTIFY_REDIS_DB", n.Redis.DB)
	n.Redis.Channel = l.envString("TOPOD_NOTIFY_REDIS_CHANNEL", n.Redis.Channel)

	r := &cfg.Jobs.Retention
	r.Enabled = l.envBool("TOPOD_RETENTION_ENABLED", r.Enabled)
	r.Schedule = l.envString("TOPOD_RETENTION_SCHEDULE", r.Schedule)
	r.MaxAge = l.envDuration("TOPOD_RETENTION_MAX_AGE", r.MaxAge)

	t := &cfg.Telemetry
	t.Enabled = l.envBool("TOPOD_TELEMETRY_ENABLED", t.Enabled)
	t.Exporter = l.envString("TOPOD_TELEMETRY_EXPORTER", t.Exporter)
	t.Endpoint = l.envString("TOPOD_TELEMETRY_ENDPOINT", t.Endpoint)
	t.SamplingRate = l.envFloat("TOPOD_TELEMETRY_SAMPLING_RATE", t.SamplingRate)
}

// resolvePaths makes DataDir absolute and derives unset paths from it.
func resolvePaths(cfg *AppConfig) {
	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	if cfg.Store.Path == "" {
		switch cfg.Store.Backend {
		case StoreSqlite:
			cfg.Store.Path = filepath.Join(cfg.DataDir, "history.db")
		case StoreBadger:
			cfg.Store.Path = filepath.Join(cfg.DataDir, "history.badger")
		}
	}
	if cfg.Engine.Mininet.WorkDir == "" {
		cfg.Engine.Mininet.WorkDir = filepath.Join(cfg.DataDir, "topologies")
	}
}
