// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package topology builds the host/switch graphs behind each topology kind.
// Hosts are named h1..hn and switches s1..sm in creation order.
package topology

import (
	"errors"
	"fmt"

	"github.com/ManuGH/topod/internal/domain/session/model"
)

var (
	ErrUnsupportedKind = errors.New("unsupported topology kind")
	ErrTooFewNodes     = errors.New("too few nodes for topology")
)

// Graph is a buildable topology description.
type Graph struct {
	Kind     model.TopologyKind
	Mode     model.Mode
	Hosts    []string
	Switches []string
	Links    []model.Link
}

type builder struct {
	g Graph
}

func (b *builder) host() string {
	name := fmt.Sprintf("h%d", len(b.g.Hosts)+1)
	b.g.Hosts = append(b.g.Hosts, name)
	return name
}

func (b *builder) switch_() string {
	name := fmt.Sprintf("s%d", len(b.g.Switches)+1)
	b.g.Switches = append(b.g.Switches, name)
	return name
}

func (b *builder) link(a, c string) {
	b.g.Links = append(b.g.Links, model.Link{A: a, B: c})
}

// Build returns the graph for kind with n hosts.
func Build(kind model.TopologyKind, n uint, mode model.Mode) (Graph, error) {
	if n == 0 {
		return Graph{}, fmt.Errorf("%w: %s needs at least 1 host", ErrTooFewNodes, kind)
	}
	b := &builder{g: Graph{Kind: kind, Mode: mode}}
	count := int(n)

	switch kind {
	case model.KindRing:
		b.ring(count, mode == model.ModeFull)
	case model.KindStar:
		b.star(count)
	case model.KindMesh:
		b.mesh(count, mode == model.ModeFull)
	case model.KindLinear:
		b.linear(count)
	case model.KindTree:
		if count < 3 {
			return Graph{}, fmt.Errorf("%w: tree needs at least 3 hosts, got %d", ErrTooFewNodes, count)
		}
		b.tree(count)
	case model.KindFatTree:
		b.fatTree(count)
	default:
		return Graph{}, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
	return b.g, nil
}

// switchPerHost gives every host its own switch and returns the switches.
func (b *builder) switchPerHost(n int) []string {
	sw := make([]string, n)
	for i := range sw {
		sw[i] = b.switch_()
	}
	for i := 0; i < n; i++ {
		b.link(b.host(), sw[i])
	}
	return sw
}

// ring closes the loop only in full mode and only when that adds a new link.
func (b *builder) ring(n int, closed bool) {
	sw := b.switchPerHost(n)
	for i := 0; i+1 < n; i++ {
		b.link(sw[i], sw[i+1])
	}
	if closed && n > 2 {
		b.link(sw[n-1], sw[0])
	}
}

func (b *builder) star(n int) {
	hub := b.switch_()
	for i := 0; i < n; i++ {
		b.link(b.host(), hub)
	}
}

func (b *builder) mesh(n int, full bool) {
	sw := b.switchPerHost(n)
	if full {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				b.link(sw[i], sw[j])
			}
		}
		return
	}
	for i := 0; i < n; i++ {
		if i+1 < n {
			b.link(sw[i], sw[i+1])
		}
		if i+2 < n {
			b.link(sw[i], sw[i+2])
		}
	}
	if n > 3 {
		b.link(sw[n-1], sw[0])
	}
}

func (b *builder) linear(n int) {
	sw := b.switchPerHost(n)
	for i := 0; i+1 < n; i++ {
		b.link(sw[i], sw[i+1])
	}
}

// tree attaches two hosts per switch breadth-first. Each switch gets two
// child switches while hosts remain, so the last level may hold empty switches.
func (b *builder) tree(n int) {
	queue := []string{b.switch_()}
	placed := 0
	for placed < n && len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]

		for i := 0; i < 2 && placed < n; i++ {
			b.link(parent, b.host())
			placed++
		}
		if placed < n {
			for i := 0; i < 2; i++ {
				child := b.switch_()
				b.link(parent, child)
				queue = append(queue, child)
			}
		}
	}
}

// FatTreeArity returns the smallest even k whose fat tree holds n hosts.
func FatTreeArity(n int) int {
	k := 2
	for (k/2)*(k/2)*k < n {
		k += 2
	}
	return k
}

func (b *builder) fatTree(n int) {
	k := FatTreeArity(n)
	half := k / 2
	numCore := half * half
	numAgg := k * half
	numEdge := numAgg

	core := make([]string, numCore)
	for i := range core {
		core[i] = b.switch_()
	}
	agg := make([]string, numAgg)
	for i := range agg {
		agg[i] = b.switch_()
	}
	edge := make([]string, numEdge)
	for i := range edge {
		edge[i] = b.switch_()
	}

	for i, c := range core {
		start := i % half
		for j := 0; j < k; j++ {
			b.link(c, agg[start+j*half])
		}
	}
	for i, a := range agg {
		group := i / half
		for j := 0; j < half; j++ {
			b.link(a, edge[group*half+j])
		}
	}

	placed := 0
	for _, e := range edge {
		for j := 0; j < half && placed < n; j++ {
			b.link(e, b.host())
			placed++
		}
	}
}
