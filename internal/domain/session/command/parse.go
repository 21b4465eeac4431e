// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package command turns raw WebSocket text frames into typed session commands.
package command

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ManuGH/topod/internal/domain/session/model"
)

const (
	kwStart = "start"
	kwStop  = "stop"
	kwExec  = "exec"
)

// Parse classifies a frame. It never blocks and never panics; every input
// yields either a Command or a *ParseError.
func Parse(frame string, vocab model.Vocabulary) (model.Command, error) {
	text := strings.TrimSpace(frame)
	if strings.HasPrefix(text, "{") {
		return parseJSON(text)
	}

	head, rest, hasArgs := strings.Cut(text, ":")
	switch {
	case head == kwStart:
		if !hasArgs {
			return nil, invalid(text, "start requires <n>:<topology>:<mode>")
		}
		return parseStart(text, rest, vocab)
	case head == kwExec:
		if !hasArgs || strings.TrimSpace(rest) == "" {
			return nil, invalid(text, "exec requires a shell command")
		}
		return model.Exec{ShellCommand: rest}, nil
	case text == kwStop:
		return model.Stop{}, nil
	case strings.HasPrefix(text, kwStop):
		return nil, invalid(text, "stop takes no arguments")
	case text == "":
		return nil, unknown(text, "empty frame")
	default:
		return nil, unknown(text, "unrecognised command "+strconv.Quote(head))
	}
}

func parseStart(raw, args string, vocab model.Vocabulary) (model.Command, error) {
	fields := strings.Split(args, ":")
	if len(fields) != 3 {
		return nil, invalid(raw, "start expects 3 arguments, got %d", len(fields))
	}

	n, err := strconv.ParseUint(fields[0], 10, 0)
	if err != nil || n == 0 {
		return nil, invalid(raw, "node count %q is not a positive integer", fields[0])
	}
	maxNodes := vocab.MaxNodes
	if maxNodes == 0 {
		maxNodes = model.DefaultMaxNodes
	}
	if uint(n) > maxNodes {
		return nil, invalid(raw, "node count %d exceeds limit %d", n, maxNodes)
	}

	kind := model.TopologyKind(strings.ToLower(fields[1]))
	if !vocab.HasKind(kind) {
		return nil, invalid(raw, "unknown topology %q", fields[1])
	}
	mode := model.Mode(strings.ToLower(fields[2]))
	if !vocab.HasMode(mode) {
		return nil, invalid(raw, "unknown mode %q", fields[2])
	}

	return model.Start{NodeCount: uint(n), Topology: kind, Mode: mode}, nil
}

func parseJSON(raw string) (model.Command, error) {
	if !gjson.Valid(raw) {
		return nil, invalid(raw, "malformed JSON frame")
	}
	typ := gjson.Get(raw, "type")
	if typ.Type != gjson.String || typ.Str == "" {
		return nil, invalid(raw, "JSON frame needs a string \"type\"")
	}

	payload := json.RawMessage(raw)
	switch typ.Str {
	case string(model.CmdClientHello):
		return model.ClientHello{Payload: payload}, nil
	case string(model.CmdTest):
		return model.Test{Payload: payload}, nil
	case kwStart, kwStop, kwExec:
		return nil, invalid(raw, "%s must be sent as a text frame", typ.Str)
	default:
		return model.Structured{Type: typ.Str, Payload: payload}, nil
	}
}

// Format renders a command back into its wire form.
func Format(c model.Command) string {
	switch v := c.(type) {
	case model.Start:
		return kwStart + ":" + strconv.FormatUint(uint64(v.NodeCount), 10) + ":" + string(v.Topology) + ":" + string(v.Mode)
	case model.Stop:
		return kwStop
	case model.Exec:
		return kwExec + ":" + v.ShellCommand
	case model.ClientHello:
		return string(v.Payload)
	case model.Test:
		return string(v.Payload)
	case model.Structured:
		return string(v.Payload)
	default:
		return ""
	}
}
