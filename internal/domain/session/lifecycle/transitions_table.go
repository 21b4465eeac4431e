// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package lifecycle holds the declarative session state machine. The session
// loop looks decisions up here and executes the engine operation they name.
package lifecycle

import "github.com/ManuGH/topod/internal/domain/session/model"

// Op is the engine operation a transition performs. The zero value names no
// operation and never appears in the table.
type Op int

const (
	OpCreate Op = iota + 1
	OpDestroy
	OpExec
	OpEcho
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpDestroy:
		return "destroy"
	case OpExec:
		return "exec"
	case OpEcho:
		return "echo"
	default:
		return "unknown"
	}
}

// Transition is a single allowed edge in the session state machine.
// Via is the state held while Op is in flight; empty means unchanged.
type Transition struct {
	From      model.SessionState
	Command   model.CommandKind
	Op        Op
	Via       model.SessionState
	OnSuccess model.SessionState
	OnFailure model.SessionState
}

var transitionsTable = []Transition{
	// Start path
	{From: model.SessionIdle, Command: model.CmdStart, Op: OpCreate, OnSuccess: model.SessionRunning, OnFailure: model.SessionIdle},

	// Stop path; a failed destroy keeps the handle so the client can retry.
	{From: model.SessionRunning, Command: model.CmdStop, Op: OpDestroy, Via: model.SessionStopping, OnSuccess: model.SessionIdle, OnFailure: model.SessionRunning},
	{From: model.SessionStopping, Command: model.CmdStop, Op: OpDestroy, Via: model.SessionStopping, OnSuccess: model.SessionIdle, OnFailure: model.SessionRunning},

	// Exec
	{From: model.SessionRunning, Command: model.CmdExec, Op: OpExec, OnSuccess: model.SessionRunning, OnFailure: model.SessionRunning},

	// Echo frames are legal everywhere.
	{From: model.SessionIdle, Command: model.CmdClientHello, Op: OpEcho, OnSuccess: model.SessionIdle, OnFailure: model.SessionIdle},
	{From: model.SessionRunning, Command: model.CmdClientHello, Op: OpEcho, OnSuccess: model.SessionRunning, OnFailure: model.SessionRunning},
	{From: model.SessionStopping, Command: model.CmdClientHello, Op: OpEcho, OnSuccess: model.SessionStopping, OnFailure: model.SessionStopping},
	{From: model.SessionIdle, Command: model.CmdTest, Op: OpEcho, OnSuccess: model.SessionIdle, OnFailure: model.SessionIdle},
	{From: model.SessionRunning, Command: model.CmdTest, Op: OpEcho, OnSuccess: model.SessionRunning, OnFailure: model.SessionRunning},
	{From: model.SessionStopping, Command: model.CmdTest, Op: OpEcho, OnSuccess: model.SessionStopping, OnFailure: model.SessionStopping},
	{From: model.SessionIdle, Command: model.CmdStructured, Op: OpEcho, OnSuccess: model.SessionIdle, OnFailure: model.SessionIdle},
	{From: model.SessionRunning, Command: model.CmdStructured, Op: OpEcho, OnSuccess: model.SessionRunning, OnFailure: model.SessionRunning},
	{From: model.SessionStopping, Command: model.CmdStructured, Op: OpEcho, OnSuccess: model.SessionStopping, OnFailure: model.SessionStopping},
}

// TransitionFor returns the allowed transition for a given state+command.
func TransitionFor(from model.SessionState, cmd model.CommandKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Command == cmd {
			return tr, true
		}
	}
	return Transition{}, false
}
