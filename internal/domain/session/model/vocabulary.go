// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

import "slices"

// TopologyKind names a topology shape the engine knows how to build.
type TopologyKind string

const (
	KindRing    TopologyKind = "ring"
	KindStar    TopologyKind = "star"
	KindMesh    TopologyKind = "mesh"
	KindLinear  TopologyKind = "linear"
	KindTree    TopologyKind = "tree"
	KindFatTree TopologyKind = "fattree"
)

// Mode selects the link density of a topology.
type Mode string

const (
	ModeFull    Mode = "full"
	ModePartial Mode = "partial"
)

// DefaultMaxNodes bounds node counts accepted by the parser unless configured otherwise.
const DefaultMaxNodes uint = 64

// BuiltinKinds lists every kind the bundled topology catalogue implements.
func BuiltinKinds() []TopologyKind {
	return []TopologyKind{KindRing, KindStar, KindMesh, KindLinear, KindTree, KindFatTree}
}

// BuiltinModes lists every mode the bundled topology catalogue implements.
func BuiltinModes() []Mode {
	return []Mode{ModeFull, ModePartial}
}

// Vocabulary is the recognised set of topology kinds, modes and the node count ceiling.
// It is the only parser input besides the frame itself.
type Vocabulary struct {
	Kinds    []TopologyKind `json:"kinds"`
	Modes    []Mode         `json:"modes"`
	MaxNodes uint           `json:"max_nodes"`
}

// DefaultVocabulary accepts every builtin kind and mode.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Kinds:    BuiltinKinds(),
		Modes:    BuiltinModes(),
		MaxNodes: DefaultMaxNodes,
	}
}

func (v Vocabulary) HasKind(k TopologyKind) bool {
	return slices.Contains(v.Kinds, k)
}

func (v Vocabulary) HasMode(m Mode) bool {
	return slices.Contains(v.Modes, m)
}
