// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "encoding/json"

// EventType discriminates outbound events.
type EventType string

const (
	EventConnected  EventType = "connected"
	EventAck        EventType = "ack"
	EventExecResult EventType = "exec_result"
	EventError      EventType = "error"
)

// Event is an outbound message addressed to the session's own connection.
// Which fields are meaningful depends on Type; the wire encoder picks them.
type Event struct {
	Type      EventType
	SessionID string

	// Ack / ExecResult
	Command  CommandKind
	Payload  json.RawMessage
	Topology *TopologyInfo
	Detail   string

	// ExecResult
	ShellCommand string
	Stdout       string
	Stderr       string
	ExitCode     int

	// Error
	ErrKind ErrorKind
	Message string
	Raw     string
}

// Simple reports whether the event carries nothing beyond its type and command.
func (e Event) Simple() bool {
	switch e.Type {
	case EventConnected:
		return true
	case EventAck:
		return len(e.Payload) == 0 && e.Topology == nil && e.Detail == ""
	default:
		return false
	}
}

func ConnectedEvent(sessionID string) Event {
	return Event{Type: EventConnected, SessionID: sessionID}
}

func AckEvent(cmd CommandKind) Event {
	return Event{Type: EventAck, Command: cmd}
}

// EchoEvent acknowledges a JSON frame and echoes its payload back.
func EchoEvent(cmd CommandKind, payload json.RawMessage) Event {
	return Event{Type: EventAck, Command: cmd, Payload: payload}
}

func ExecResultEvent(shellCommand string, stdout, stderr string, exitCode int) Event {
	return Event{
		Type:         EventExecResult,
		Command:      CmdExec,
		ShellCommand: shellCommand,
		Stdout:       stdout,
		Stderr:       stderr,
		ExitCode:     exitCode,
	}
}

func ErrorEvent(kind ErrorKind, message, raw string) Event {
	return Event{Type: EventError, ErrKind: kind, Message: message, Raw: raw}
}
