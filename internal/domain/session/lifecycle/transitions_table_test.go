// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/topod/internal/domain/session/model"
)

var (
	allStates   = []model.SessionState{model.SessionIdle, model.SessionRunning, model.SessionStopping}
	allCommands = []model.CommandKind{model.CmdStart, model.CmdStop, model.CmdExec, model.CmdClientHello, model.CmdTest, model.CmdStructured}
)

func TestTransitionTable_Coverage(t *testing.T) {
	seen := map[model.SessionState]map[model.CommandKind]struct{}{}
	for _, tr := range transitionsTable {
		if seen[tr.From] == nil {
			seen[tr.From] = map[model.CommandKind]struct{}{}
		}
		_, dup := seen[tr.From][tr.Command]
		require.False(t, dup, "duplicate transition: %s + %s", tr.From, tr.Command)
		seen[tr.From][tr.Command] = struct{}{}
	}

	for _, state := range allStates {
		for _, cmd := range allCommands {
			d, ok := DecisionFor(state, cmd)
			require.True(t, ok, "missing decision for %s + %s", state, cmd)
			if d.Allowed {
				assert.Empty(t, d.Reason)
				_, inForbidden := forbidden[state][cmd]
				assert.False(t, inForbidden, "%s + %s both allowed and forbidden", state, cmd)
			} else {
				assert.NotEmpty(t, d.Reason, "forbidden %s + %s needs a reason", state, cmd)
			}
		}
	}
}

func TestDecisionFor_Lifecycle(t *testing.T) {
	d, _ := DecisionFor(model.SessionIdle, model.CmdStart)
	require.True(t, d.Allowed)
	assert.Equal(t, OpCreate, d.Transition.Op)
	assert.Equal(t, model.SessionRunning, d.Transition.OnSuccess)
	assert.Equal(t, model.SessionIdle, d.Transition.OnFailure)

	d, _ = DecisionFor(model.SessionRunning, model.CmdStart)
	assert.False(t, d.Allowed)

	d, _ = DecisionFor(model.SessionRunning, model.CmdStop)
	require.True(t, d.Allowed)
	assert.Equal(t, OpDestroy, d.Transition.Op)
	assert.Equal(t, model.SessionStopping, d.Transition.Via)
	assert.Equal(t, model.SessionIdle, d.Transition.OnSuccess)
	assert.Equal(t, model.SessionRunning, d.Transition.OnFailure)

	d, _ = DecisionFor(model.SessionStopping, model.CmdStop)
	assert.True(t, d.Allowed)

	assert.NotEmpty(t, ForbiddenReason(model.SessionIdle, model.CmdStop))
	assert.NotEmpty(t, ForbiddenReason(model.SessionIdle, model.CmdExec))
	assert.NotEmpty(t, ForbiddenReason(model.SessionStopping, model.CmdExec))
	assert.Empty(t, ForbiddenReason(model.SessionRunning, model.CmdExec))
	assert.Equal(t, "start not supported in state BOGUS", ForbiddenReason(model.SessionState("BOGUS"), model.CmdStart))
}

func TestTransitionTable_EveryRowNamesAnOperation(t *testing.T) {
	for _, tr := range transitionsTable {
		assert.NotZero(t, tr.Op, "%s + %s", tr.From, tr.Command)
		assert.NotEqual(t, "unknown", tr.Op.String(), "%s + %s", tr.From, tr.Command)
	}
	assert.Equal(t, "unknown", Op(0).String())
}

func TestDecisionFor_EchoNeverChangesState(t *testing.T) {
	for _, state := range allStates {
		for _, cmd := range []model.CommandKind{model.CmdClientHello, model.CmdTest, model.CmdStructured} {
			d, ok := DecisionFor(state, cmd)
			require.True(t, ok)
			require.True(t, d.Allowed)
			assert.Equal(t, OpEcho, d.Transition.Op)
			assert.Equal(t, state, d.Transition.OnSuccess)
		}
	}
}

func TestDecisionFor_UnknownState(t *testing.T) {
	_, ok := DecisionFor(model.SessionState("BOGUS"), model.CmdStart)
	assert.False(t, ok)
}
