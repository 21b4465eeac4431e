// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package store persists the command history: one record per inbound frame.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/domain/session/ports"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("command record not found")

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// ListOptions filters List. An empty SessionID matches every session.
type ListOptions struct {
	SessionID string
	Limit     int
}

func (o ListOptions) limit() int {
	switch {
	case o.Limit <= 0:
		return DefaultListLimit
	case o.Limit > MaxListLimit:
		return MaxListLimit
	default:
		return o.Limit
	}
}

// CommandStore is the full history API; the session core only sees ports.CommandLog.
type CommandStore interface {
	ports.CommandLog
	Get(ctx context.Context, id int64) (model.CommandRecord, error)
	// Last returns the most recently appended record.
	Last(ctx context.Context) (model.CommandRecord, error)
	// List returns records newest first.
	List(ctx context.Context, opts ListOptions) ([]model.CommandRecord, error)
	// Prune deletes records created before cutoff and reports how many.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// Open creates a CommandStore for the configured backend.
func Open(backend, path string) (CommandStore, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSqliteStore(path)
	case "badger":
		return OpenBadgerStore(path)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}

func stamp(rec model.CommandRecord) model.CommandRecord {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	} else {
		rec.CreatedAt = rec.CreatedAt.UTC()
	}
	rec.UpdatedAt = rec.CreatedAt
	if rec.Status == "" {
		rec.Status = model.CommandPending
	}
	return rec
}
