// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
}

const (
	defaultReadTimeout     = 60 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultMaxHeaderBytes  = 1 << 20
	defaultShutdownTimeout = 15 * time.Second
	minShutdownTimeout     = 3 * time.Second
)

// ParseServerConfig resolves server settings with precedence ENV > cfg > defaults.
// There is no write timeout: WebSocket connections are long lived.
func ParseServerConfig(cfg AppConfig) ServerConfig {
	base := ServerConfig{
		ListenAddr:      cfg.Listen,
		ReadTimeout:     defaultReadTimeout,
		IdleTimeout:     defaultIdleTimeout,
		MaxHeaderBytes:  defaultMaxHeaderBytes,
		ShutdownTimeout: defaultShutdownTimeout,
	}
	if base.ListenAddr == "" {
		base.ListenAddr = DefaultListen
	}
	if cfg.Server.ReadTimeout > 0 {
		base.ReadTimeout = cfg.Server.ReadTimeout
	}
	if cfg.Server.IdleTimeout > 0 {
		base.IdleTimeout = cfg.Server.IdleTimeout
	}
	if cfg.Server.MaxHeaderBytes > 0 {
		base.MaxHeaderBytes = cfg.Server.MaxHeaderBytes
	}
	if cfg.Server.ShutdownTimeout > 0 {
		base.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}

	base.ReadTimeout = ParseDuration("TOPOD_SERVER_READ_TIMEOUT", base.ReadTimeout)
	base.IdleTimeout = ParseDuration("TOPOD_SERVER_IDLE_TIMEOUT", base.IdleTimeout)
	if n := ParseInt("TOPOD_SERVER_MAX_HEADER_BYTES", base.MaxHeaderBytes); n > 0 {
		base.MaxHeaderBytes = n
	}
	base.ShutdownTimeout = ParseDuration("TOPOD_SERVER_SHUTDOWN_TIMEOUT", base.ShutdownTimeout)
	if base.ShutdownTimeout < minShutdownTimeout {
		base.ShutdownTimeout = minShutdownTimeout
	}
	return base
}
