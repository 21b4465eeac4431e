// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "encoding/json"

// CommandKind discriminates the Command variants.
type CommandKind string

const (
	CmdStart       CommandKind = "start"
	CmdStop        CommandKind = "stop"
	CmdExec        CommandKind = "exec"
	CmdClientHello CommandKind = "client_connected"
	CmdTest        CommandKind = "test"
	CmdStructured  CommandKind = "structured"
)

// Command is a parsed inbound control frame. Implementations are immutable values.
type Command interface {
	Kind() CommandKind
}

// Start requests creation of a topology.
type Start struct {
	NodeCount uint
	Topology  TopologyKind
	Mode      Mode
}

// Stop requests teardown of the session's topology.
type Stop struct{}

// Exec runs a shell command inside the running topology.
type Exec struct {
	ShellCommand string
}

// ClientHello is the identification frame browsers send after connecting.
type ClientHello struct {
	Payload json.RawMessage
}

// Test is a free-form liveness probe.
type Test struct {
	Payload json.RawMessage
}

// Structured is any other JSON frame carrying a string "type". It is
// acknowledged with its payload echoed and never touches the topology.
type Structured struct {
	Type    string
	Payload json.RawMessage
}

func (Start) Kind() CommandKind       { return CmdStart }
func (Stop) Kind() CommandKind        { return CmdStop }
func (Exec) Kind() CommandKind        { return CmdExec }
func (ClientHello) Kind() CommandKind { return CmdClientHello }
func (Test) Kind() CommandKind        { return CmdTest }
func (Structured) Kind() CommandKind  { return CmdStructured }

var (
	_ Command = Start{}
	_ Command = Stop{}
	_ Command = Exec{}
	_ Command = ClientHello{}
	_ Command = Test{}
	_ Command = Structured{}
)
