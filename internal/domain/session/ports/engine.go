// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import (
	"context"

	"github.com/ManuGH/topod/internal/domain/session/model"
)

// Handle is an opaque reference to a topology owned by an engine.
type Handle string

func (h Handle) String() string { return string(h) }

// CreateSpec describes a topology to build.
type CreateSpec struct {
	SessionID string
	NodeCount uint
	Kind      model.TopologyKind
	Mode      model.Mode
}

// Instance is a freshly created topology.
type Instance struct {
	Handle   Handle
	Hosts    []string
	Switches []string
	Links    []model.Link
}

// Info renders the instance as the client-facing summary.
func (i Instance) Info(spec CreateSpec) *model.TopologyInfo {
	return &model.TopologyInfo{
		Handle:    string(i.Handle),
		Kind:      spec.Kind,
		Mode:      spec.Mode,
		NodeCount: spec.NodeCount,
		Hosts:     i.Hosts,
		Switches:  i.Switches,
		Links:     i.Links,
	}
}

// ExecResult is the captured output of a command run inside a topology.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// TopologyEngine creates, destroys and runs commands in emulated topologies.
// The session core never calls Exec or Destroy without a live handle.
type TopologyEngine interface {
	// Create builds a topology. Cancelling ctx must abort the build; an
	// implementation that already produced a handle returns it regardless.
	Create(ctx context.Context, spec CreateSpec) (Instance, error)

	// Destroy releases the topology. Destroying an unknown or already
	// destroyed handle returns nil.
	Destroy(ctx context.Context, h Handle) error

	// Exec runs shellCommand inside the topology.
	Exec(ctx context.Context, h Handle, shellCommand string) (ExecResult, error)
}
