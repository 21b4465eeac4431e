// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"fmt"

	"github.com/ManuGH/topod/internal/domain/session/model"
)

// Decision records whether a command is allowed in a state and why not.
type Decision struct {
	Allowed    bool
	Reason     string
	Transition Transition
}

var forbidden = map[model.SessionState]map[model.CommandKind]string{
	model.SessionIdle: {
		model.CmdStop: "no topology to stop",
		model.CmdExec: "no topology is running",
	},
	model.SessionRunning: {
		model.CmdStart: "a topology is already running; stop it first",
	},
	model.SessionStopping: {
		model.CmdStart: "topology is stopping",
		model.CmdExec:  "topology is stopping",
	},
}

// DecisionFor looks up the outcome of applying cmd in state from. The second
// return value is false only for states or commands the table does not know.
func DecisionFor(from model.SessionState, cmd model.CommandKind) (Decision, bool) {
	if tr, ok := TransitionFor(from, cmd); ok {
		return Decision{Allowed: true, Transition: tr}, true
	}
	if reason, ok := forbidden[from][cmd]; ok {
		return Decision{Reason: reason}, true
	}
	return Decision{}, false
}

// ForbiddenReason is the message sent to a client whose command is rejected
// in state from. Pairs the table does not know get a generic reason; allowed
// pairs return "".
func ForbiddenReason(from model.SessionState, cmd model.CommandKind) string {
	d, ok := DecisionFor(from, cmd)
	switch {
	case !ok:
		return fmt.Sprintf("%s not supported in state %s", cmd, from)
	case d.Allowed:
		return ""
	default:
		return d.Reason
	}
}
