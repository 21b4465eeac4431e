// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package manager runs per-connection sessions against a topology engine.
package manager

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/topod/internal/domain/session/ports"
	"github.com/ManuGH/topod/internal/log"
)

// Manager opens sessions into a Registry. Config is read through cfgFn on
// every Open so reloaded values apply to new sessions only.
type Manager struct {
	registry *Registry
	deps     Deps
	cfgFn    func() Config
	logger   zerolog.Logger
}

func New(registry *Registry, deps Deps, cfgFn func() Config) (*Manager, error) {
	if registry == nil {
		return nil, errors.New("manager: registry is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("manager: engine is required")
	}
	if cfgFn == nil {
		cfgFn = DefaultConfig
	}
	return &Manager{
		registry: registry,
		deps:     deps.withDefaults(),
		cfgFn:    cfgFn,
		logger:   log.WithComponent("session-manager"),
	}, nil
}

func (m *Manager) Registry() *Registry { return m.registry }

// Open creates a session bound to emitter, registers it and starts its loop.
func (m *Manager) Open(ctx context.Context, emitter ports.EventEmitter, remote string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if emitter == nil {
		return nil, errors.New("manager: emitter is required")
	}
	s := newSession(uuid.NewString(), remote, m.cfgFn().withDefaults(), m.deps, emitter)
	if err := m.registry.Insert(s); err != nil {
		s.cancel()
		return nil, fmt.Errorf("open session: %w", err)
	}
	go s.run()
	return s, nil
}

// Release closes s, waits for its teardown (bounded by ctx) and unregisters it.
func (m *Manager) Release(ctx context.Context, s *Session) error {
	err := s.Close(ctx)
	m.registry.Remove(s.id)
	if err != nil {
		m.logger.Warn().Err(err).
			Str(log.FieldSessionID, s.id).
			Str(log.FieldEvent, "session.release_timeout").
			Msg("session did not finish teardown in time")
	}
	return err
}

// Shutdown closes every registered session.
func (m *Manager) Shutdown(ctx context.Context) error {
	n := m.registry.Len()
	err := m.registry.CloseAll(ctx)
	m.logger.Info().Int("sessions", n).Str(log.FieldEvent, "session.shutdown").Msg("sessions closed")
	return err
}
