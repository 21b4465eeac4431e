// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ws

import (
	"encoding/json"
	"fmt"

	"github.com/ManuGH/topod/internal/domain/session/model"
)

type connectedFrame struct {
	Type      model.EventType `json:"type"`
	SessionID string          `json:"session_id"`
}

type ackFrame struct {
	Type      model.EventType     `json:"type"`
	Command   model.CommandKind   `json:"command"`
	SessionID string              `json:"session_id,omitempty"`
	Payload   json.RawMessage     `json:"payload,omitempty"`
	Topology  *model.TopologyInfo `json:"topology,omitempty"`
	Detail    string              `json:"detail,omitempty"`
}

type execResultFrame struct {
	Type     model.EventType `json:"type"`
	Command  string          `json:"command"`
	Stdout   string          `json:"stdout"`
	Stderr   string          `json:"stderr"`
	ExitCode int             `json:"exit_code"`
}

type errorFrame struct {
	Type    model.EventType `json:"type"`
	Kind    model.ErrorKind `json:"kind"`
	Message string          `json:"message"`
	Raw     string          `json:"raw,omitempty"`
}

// Encode renders ev for the wire. Simple events become `connected:<id>` or
// `ack:<command>` unless jsonOnly is set; everything else is JSON.
func Encode(ev model.Event, jsonOnly bool) ([]byte, error) {
	if !jsonOnly && ev.Simple() {
		switch ev.Type {
		case model.EventConnected:
			return []byte("connected:" + ev.SessionID), nil
		case model.EventAck:
			return []byte("ack:" + string(ev.Command)), nil
		}
	}

	var frame any
	switch ev.Type {
	case model.EventConnected:
		frame = connectedFrame{Type: ev.Type, SessionID: ev.SessionID}
	case model.EventAck:
		frame = ackFrame{
			Type:      ev.Type,
			Command:   ev.Command,
			SessionID: ev.SessionID,
			Payload:   ev.Payload,
			Topology:  ev.Topology,
			Detail:    ev.Detail,
		}
	case model.EventExecResult:
		frame = execResultFrame{
			Type:     ev.Type,
			Command:  ev.ShellCommand,
			Stdout:   ev.Stdout,
			Stderr:   ev.Stderr,
			ExitCode: ev.ExitCode,
		}
	case model.EventError:
		frame = errorFrame{Type: ev.Type, Kind: ev.ErrKind, Message: ev.Message, Raw: ev.Raw}
	default:
		return nil, fmt.Errorf("encode event: unknown type %q", ev.Type)
	}
	return json.Marshal(frame)
}
