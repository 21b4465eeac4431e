// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	// Session attributes
	SessionIDKey    = "session.id"
	SessionStateKey = "session.state"
	CommandKindKey  = "session.command"

	// Topology / engine attributes
	EngineNameKey        = "engine.name"
	EngineOpKey          = "engine.op"
	TopologyHandleKey    = "topology.handle"
	TopologyKindKey      = "topology.kind"
	TopologyModeKey      = "topology.mode"
	TopologyNodeCountKey = "topology.node_count"
	ExecExitCodeKey      = "exec.exit_code"

	// Job attributes
	JobTypeKey     = "job.type"
	JobStatusKey   = "job.status"
	JobDurationKey = "job.duration_ms"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// SessionAttributes identifies the session a span belongs to.
func SessionAttributes(sessionID, state, command string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if sessionID != "" {
		attrs = append(attrs, attribute.String(SessionIDKey, sessionID))
	}
	if state != "" {
		attrs = append(attrs, attribute.String(SessionStateKey, state))
	}
	if command != "" {
		attrs = append(attrs, attribute.String(CommandKindKey, command))
	}
	return attrs
}

// TopologyAttributes describes the topology an engine call operates on.
func TopologyAttributes(handle, kind, mode string, nodeCount uint) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if handle != "" {
		attrs = append(attrs, attribute.String(TopologyHandleKey, handle))
	}
	if kind != "" {
		attrs = append(attrs, attribute.String(TopologyKindKey, kind))
	}
	if mode != "" {
		attrs = append(attrs, attribute.String(TopologyModeKey, mode))
	}
	if nodeCount > 0 {
		attrs = append(attrs, attribute.Int(TopologyNodeCountKey, int(nodeCount)))
	}
	return attrs
}

// JobAttributes creates job-related span attributes.
func JobAttributes(jobType, status string, durationMS int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(JobTypeKey, jobType),
		attribute.String(JobStatusKey, status),
		attribute.Int64(JobDurationKey, durationMS),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
