// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import (
	"context"
	"time"

	"github.com/ManuGH/topod/internal/domain/session/model"
	"github.com/ManuGH/topod/internal/domain/session/ports"
)

// Config holds per-session tunables. A snapshot is taken when a session opens.
type Config struct {
	QueueSize         int
	CreateTimeout     time.Duration
	ExecTimeout       time.Duration
	DestroyTimeout    time.Duration
	TeardownTimeout   time.Duration
	CancelStartOnStop bool
	Vocabulary        model.Vocabulary
}

func DefaultConfig() Config {
	return Config{
		QueueSize:         32,
		CreateTimeout:     2 * time.Minute,
		ExecTimeout:       30 * time.Second,
		DestroyTimeout:    30 * time.Second,
		TeardownTimeout:   10 * time.Second,
		CancelStartOnStop: true,
		Vocabulary:        model.DefaultVocabulary(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.CreateTimeout <= 0 {
		c.CreateTimeout = d.CreateTimeout
	}
	if c.ExecTimeout <= 0 {
		c.ExecTimeout = d.ExecTimeout
	}
	if c.DestroyTimeout <= 0 {
		c.DestroyTimeout = d.DestroyTimeout
	}
	if c.TeardownTimeout <= 0 {
		c.TeardownTimeout = d.TeardownTimeout
	}
	if len(c.Vocabulary.Kinds) == 0 {
		c.Vocabulary.Kinds = d.Vocabulary.Kinds
	}
	if len(c.Vocabulary.Modes) == 0 {
		c.Vocabulary.Modes = d.Vocabulary.Modes
	}
	if c.Vocabulary.MaxNodes == 0 {
		c.Vocabulary.MaxNodes = d.Vocabulary.MaxNodes
	}
	return c
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Engine   ports.TopologyEngine
	Notifier ports.ControllerNotifier
	History  ports.CommandLog
}

type nopHistory struct{}

func (nopHistory) Append(_ context.Context, _ model.CommandRecord) (int64, error) { return 0, nil }
func (nopHistory) Complete(_ context.Context, _ int64, _ model.CommandStatus, _ string) error {
	return nil
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = ports.NopNotifier{}
	}
	if d.History == nil {
		d.History = nopHistory{}
	}
	return d
}
