// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/topod/internal/domain/session/model"
)

func TestParse_Valid(t *testing.T) {
	vocab := model.DefaultVocabulary()
	cases := []struct {
		frame string
		want  model.Command
	}{
		{"start:4:ring:partial", model.Start{NodeCount: 4, Topology: model.KindRing, Mode: model.ModePartial}},
		{"start:64:fattree:full", model.Start{NodeCount: 64, Topology: model.KindFatTree, Mode: model.ModeFull}},
		{"start:3:STAR:Full", model.Start{NodeCount: 3, Topology: model.KindStar, Mode: model.ModeFull}},
		{"  start:2:mesh:partial\n", model.Start{NodeCount: 2, Topology: model.KindMesh, Mode: model.ModePartial}},
		{"stop", model.Stop{}},
		{"stop\n", model.Stop{}},
		{"exec:pingall", model.Exec{ShellCommand: "pingall"}},
		{"exec:h1 ping -c1 h2", model.Exec{ShellCommand: "h1 ping -c1 h2"}},
		{"exec:sh -c 'echo a:b:c'", model.Exec{ShellCommand: "sh -c 'echo a:b:c'"}},
		{`{"type":"client_connected","ua":"x"}`, model.ClientHello{Payload: json.RawMessage(`{"type":"client_connected","ua":"x"}`)}},
		{` {"type":"test","n":1} `, model.Test{Payload: json.RawMessage(`{"type":"test","n":1}`)}},
		{`{"type":"path_update","src":"h1","dst":"h2"}`, model.Structured{Type: "path_update", Payload: json.RawMessage(`{"type":"path_update","src":"h1","dst":"h2"}`)}},
		{`{"type":"reboot"}`, model.Structured{Type: "reboot", Payload: json.RawMessage(`{"type":"reboot"}`)}},
	}
	for _, tc := range cases {
		t.Run(tc.frame, func(t *testing.T) {
			got, err := Parse(tc.frame, vocab)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tc.frame, diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	vocab := model.DefaultVocabulary()
	cases := []struct {
		frame string
		kind  model.ErrorKind
	}{
		{"start", model.ErrKindInvalidArgument},
		{"start:", model.ErrKindInvalidArgument},
		{"start:4:ring", model.ErrKindInvalidArgument},
		{"start:4:ring:partial:extra", model.ErrKindInvalidArgument},
		{"start:abc:ring:partial", model.ErrKindInvalidArgument},
		{"start:0:ring:partial", model.ErrKindInvalidArgument},
		{"start:-1:ring:partial", model.ErrKindInvalidArgument},
		{"start:+4:ring:partial", model.ErrKindInvalidArgument},
		{"start:65:ring:partial", model.ErrKindInvalidArgument},
		{"start:4:torus:partial", model.ErrKindInvalidArgument},
		{"start:4:ring:half", model.ErrKindInvalidArgument},
		{"stop now", model.ErrKindInvalidArgument},
		{"stop:", model.ErrKindInvalidArgument},
		{"stopx", model.ErrKindInvalidArgument},
		{"exec", model.ErrKindInvalidArgument},
		{"exec:", model.ErrKindInvalidArgument},
		{"exec:   ", model.ErrKindInvalidArgument},
		{`{"type":`, model.ErrKindInvalidArgument},
		{`{"kind":"test"}`, model.ErrKindInvalidArgument},
		{`{"type":7}`, model.ErrKindInvalidArgument},
		{`{"type":""}`, model.ErrKindInvalidArgument},
		{`{"type":"stop"}`, model.ErrKindInvalidArgument},
		{`{"type":"exec","cmd":"pingall"}`, model.ErrKindInvalidArgument},
		{`{"src":"h1","dst":"h2"}`, model.ErrKindInvalidArgument},
		{"reboot", model.ErrKindUnknownCommand},
		{"START:4:ring:partial", model.ErrKindUnknownCommand},
		{"", model.ErrKindUnknownCommand},
		{"   ", model.ErrKindUnknownCommand},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%q", tc.frame), func(t *testing.T) {
			cmd, err := Parse(tc.frame, vocab)
			require.Error(t, err)
			assert.Nil(t, cmd)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tc.kind, pe.Kind)
			assert.Equal(t, tc.kind, model.KindOf(err))
		})
	}
}

func TestParse_ErrorsMatchSentinels(t *testing.T) {
	vocab := model.DefaultVocabulary()

	_, err := Parse("start:abc:ring:partial", vocab)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = Parse("launch", vocab)
	assert.ErrorIs(t, err, model.ErrUnknownCommand)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "launch", pe.Raw)
}

func TestParse_StructuredFrameKeepsPayload(t *testing.T) {
	frame := `{"type":"path_update","src":"h1","dst":"h2","hops":["s1","s2"]}`
	cmd, err := Parse(frame, model.DefaultVocabulary())
	require.NoError(t, err)
	assert.Equal(t, model.CmdStructured, cmd.Kind())
	assert.Equal(t, frame, Format(cmd))
	assert.JSONEq(t, frame, string(cmd.(model.Structured).Payload))
}

func TestParse_RespectsVocabulary(t *testing.T) {
	vocab := model.Vocabulary{
		Kinds:    []model.TopologyKind{model.KindRing},
		Modes:    []model.Mode{model.ModeFull},
		MaxNodes: 8,
	}

	_, err := Parse("start:8:ring:full", vocab)
	require.NoError(t, err)

	for _, frame := range []string{"start:9:ring:full", "start:4:star:full", "start:4:ring:partial"} {
		_, err := Parse(frame, vocab)
		assert.ErrorIs(t, err, model.ErrInvalidArgument, frame)
	}
}

func TestParse_StartRoundTrip(t *testing.T) {
	vocab := model.DefaultVocabulary()
	for _, kind := range vocab.Kinds {
		for _, mode := range vocab.Modes {
			for _, n := range []uint{1, 2, 3, 17, vocab.MaxNodes} {
				want := model.Start{NodeCount: n, Topology: kind, Mode: mode}
				got, err := Parse(Format(want), vocab)
				require.NoError(t, err)
				if diff := cmp.Diff(model.Command(want), got); diff != "" {
					t.Fatalf("round trip of %s (-want +got):\n%s", Format(want), diff)
				}
			}
		}
	}
}
