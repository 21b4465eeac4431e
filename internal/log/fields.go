// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"
	FieldTraceID   = "trace_id"
	FieldRemote    = "remote"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldHandle    = "handle"
	FieldCommand   = "command"
	FieldOp        = "op"
	FieldPID       = "pid"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Topology fields
	FieldKind      = "kind"
	FieldMode      = "mode"
	FieldNodeCount = "node_count"

	// Path / URL fields
	FieldPath = "path"
)
