// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import (
	"context"

	"github.com/ManuGH/topod/internal/domain/session/model"
)

// CommandLog records inbound frames and their outcome.
type CommandLog interface {
	// Append stores rec as pending and returns its assigned id.
	Append(ctx context.Context, rec model.CommandRecord) (int64, error)
	// Complete sets the final status of a previously appended record.
	Complete(ctx context.Context, id int64, status model.CommandStatus, detail string) error
}

// EventEmitter delivers events to the connection owning a session.
type EventEmitter interface {
	Emit(ctx context.Context, ev model.Event) error
}
