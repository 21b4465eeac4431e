// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "time"

// SessionState is the per-connection topology lifecycle.
type SessionState string

const (
	SessionIdle     SessionState = "IDLE"
	SessionRunning  SessionState = "RUNNING"
	SessionStopping SessionState = "STOPPING"
)

// HoldsTopology reports whether a session in this state may own a topology handle.
func (s SessionState) HoldsTopology() bool {
	return s == SessionRunning || s == SessionStopping
}

// SessionInfo is a point-in-time view of a session used by the HTTP API.
type SessionInfo struct {
	ID        string        `json:"id"`
	State     SessionState  `json:"state"`
	Handle    string        `json:"handle,omitempty"`
	Topology  *TopologyInfo `json:"topology,omitempty"`
	Remote    string        `json:"remote,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Commands  uint64        `json:"commands"`
}
