// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import (
	"context"
	"time"

	"github.com/ManuGH/topod/internal/domain/session/model"
)

// ControllerEventType names a notification sent to the network controller.
type ControllerEventType string

const (
	TopologyCreated   ControllerEventType = "topology.created"
	TopologyDestroyed ControllerEventType = "topology.destroyed"
)

// ControllerEvent tells the controller a topology appeared or went away.
type ControllerEvent struct {
	Type      ControllerEventType `json:"type"`
	SessionID string              `json:"session_id"`
	Handle    Handle              `json:"handle"`
	Kind      model.TopologyKind  `json:"kind,omitempty"`
	Mode      model.Mode          `json:"mode,omitempty"`
	NodeCount uint                `json:"node_count,omitempty"`
	At        time.Time           `json:"at"`
}

// ControllerNotifier delivers best-effort notifications. Errors are logged by
// the caller and never reach clients.
type ControllerNotifier interface {
	Notify(ctx context.Context, ev ControllerEvent) error
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, ControllerEvent) error { return nil }
