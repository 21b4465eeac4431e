// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package sim is an in-process topology engine. It builds the same graphs as
// the Mininet engine and answers a small set of CLI commands from them.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/topod/internal/domain/session/ports"
	"github.com/ManuGH/topod/internal/log"
	"github.com/ManuGH/topod/internal/topology"
)

// HandlePrefix prefixes every handle issued by the simulator.
const HandlePrefix = "sim-"

// Config tunes the simulator.
type Config struct {
	// BootDelay is how long Create pretends the topology takes to come up.
	BootDelay time.Duration
}

// Engine implements ports.TopologyEngine without any external process.
type Engine struct {
	cfg    Config
	logger zerolog.Logger

	mu   sync.Mutex
	live map[ports.Handle]*network
}

var _ ports.TopologyEngine = (*Engine)(nil)

// New returns a simulator with no live topologies.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: log.WithComponent("engine.sim"),
		live:   make(map[ports.Handle]*network),
	}
}

// Create builds the graph, waits BootDelay and registers the topology.
func (e *Engine) Create(ctx context.Context, spec ports.CreateSpec) (ports.Instance, error) {
	g, err := topology.Build(spec.Kind, spec.NodeCount, spec.Mode)
	if err != nil {
		return ports.Instance{}, err
	}

	if e.cfg.BootDelay > 0 {
		t := time.NewTimer(e.cfg.BootDelay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ports.Instance{}, fmt.Errorf("boot %s topology: %w", spec.Kind, ctx.Err())
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return ports.Instance{}, err
	}

	h := ports.Handle(HandlePrefix + uuid.NewString())
	e.mu.Lock()
	e.live[h] = newNetwork(g)
	e.mu.Unlock()

	e.logger.Info().
		Str(log.FieldEvent, "engine.created").
		Str(log.FieldSessionID, spec.SessionID).
		Str(log.FieldHandle, h.String()).
		Str(log.FieldKind, string(spec.Kind)).
		Uint(log.FieldNodeCount, spec.NodeCount).
		Msg("simulated topology up")

	return ports.Instance{
		Handle:   h,
		Hosts:    g.Hosts,
		Switches: g.Switches,
		Links:    g.Links,
	}, nil
}

// Destroy forgets the topology. Unknown handles are ignored.
func (e *Engine) Destroy(ctx context.Context, h ports.Handle) error {
	e.mu.Lock()
	_, ok := e.live[h]
	delete(e.live, h)
	e.mu.Unlock()

	if ok {
		e.logger.Info().Str(log.FieldEvent, "engine.destroyed").Str(log.FieldHandle, h.String()).Msg("simulated topology down")
	}
	return nil
}

// Exec answers the built-in commands against the topology graph.
func (e *Engine) Exec(ctx context.Context, h ports.Handle, shellCommand string) (ports.ExecResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.ExecResult{}, err
	}
	e.mu.Lock()
	n, ok := e.live[h]
	e.mu.Unlock()
	if !ok {
		return ports.ExecResult{}, fmt.Errorf("unknown handle %q", h)
	}
	return n.run(shellCommand), nil
}

// Live returns the number of topologies currently up.
func (e *Engine) Live() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.live)
}
