// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "time"

// CommandStatus tracks a command through the history log.
type CommandStatus string

const (
	CommandPending   CommandStatus = "pending"
	CommandSucceeded CommandStatus = "succeeded"
	CommandFailed    CommandStatus = "failed"
	CommandRejected  CommandStatus = "rejected"
)

// KindInvalid labels history entries for frames that failed to parse.
const KindInvalid = "invalid"

// CommandRecord is one inbound frame as recorded in the command history.
type CommandRecord struct {
	ID        int64         `json:"id"`
	SessionID string        `json:"session_id"`
	Kind      string        `json:"kind"`
	Raw       string        `json:"raw"`
	Status    CommandStatus `json:"status"`
	Detail    string        `json:"detail,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
