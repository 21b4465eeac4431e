// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package sim

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ManuGH/topod/internal/domain/session/ports"
	"github.com/ManuGH/topod/internal/topology"
)

const helpText = `Documented commands:
  dump      nodes     net       links     pingall   help
  <host> ping <host>
`

// network is an immutable view of a built graph.
type network struct {
	g       topology.Graph
	isHost  map[string]bool
	adj     map[string][]string
	nodeSet map[string]bool
}

func newNetwork(g topology.Graph) *network {
	n := &network{
		g:       g,
		isHost:  make(map[string]bool, len(g.Hosts)),
		adj:     make(map[string][]string),
		nodeSet: make(map[string]bool),
	}
	for _, h := range g.Hosts {
		n.isHost[h] = true
		n.nodeSet[h] = true
	}
	for _, s := range g.Switches {
		n.nodeSet[s] = true
	}
	for _, l := range g.Links {
		n.adj[l.A] = append(n.adj[l.A], l.B)
		n.adj[l.B] = append(n.adj[l.B], l.A)
	}
	return n
}

func (n *network) run(line string) ports.ExecResult {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ports.ExecResult{}
	}

	switch {
	case len(fields) == 1 && fields[0] == "help":
		return ports.ExecResult{Stdout: helpText}
	case len(fields) == 1 && fields[0] == "nodes":
		return ports.ExecResult{Stdout: n.nodes()}
	case len(fields) == 1 && (fields[0] == "net" || fields[0] == "links"):
		return ports.ExecResult{Stdout: n.net()}
	case len(fields) == 1 && fields[0] == "dump":
		return ports.ExecResult{Stdout: n.dump()}
	case len(fields) == 1 && fields[0] == "pingall":
		return ports.ExecResult{Stdout: n.pingAll()}
	case len(fields) == 3 && fields[1] == "ping":
		return n.ping(fields[0], fields[2])
	}
	return ports.ExecResult{
		Stderr:   fmt.Sprintf("*** Unknown command: %s\n", line),
		ExitCode: 127,
	}
}

func (n *network) nodes() string {
	all := append(slices.Clone(n.g.Hosts), n.g.Switches...)
	return "available nodes are: \n" + strings.Join(all, " ") + "\n"
}

func (n *network) net() string {
	var b strings.Builder
	for _, name := range append(slices.Clone(n.g.Hosts), n.g.Switches...) {
		b.WriteString(name)
		for i, peer := range n.adj[name] {
			fmt.Fprintf(&b, " %s-eth%d:%s", name, i, peer)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (n *network) dump() string {
	var b strings.Builder
	for _, h := range n.g.Hosts {
		fmt.Fprintf(&b, "<Host %s: %s-eth0>\n", h, h)
	}
	for _, s := range n.g.Switches {
		fmt.Fprintf(&b, "<OVSSwitch %s: %d ports>\n", s, len(n.adj[s]))
	}
	return b.String()
}

// reachable walks the graph from src through any node.
func (n *network) reachable(src string) map[string]bool {
	seen := map[string]bool{src: true}
	queue := []string{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range n.adj[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

func (n *network) pingAll() string {
	var b strings.Builder
	b.WriteString("*** Ping: testing ping reachability\n")
	sent, received := 0, 0
	for _, src := range n.g.Hosts {
		reach := n.reachable(src)
		b.WriteString(src + " ->")
		for _, dst := range n.g.Hosts {
			if dst == src {
				continue
			}
			sent++
			if reach[dst] {
				received++
				b.WriteString(" " + dst)
			} else {
				b.WriteString(" X")
			}
		}
		b.WriteByte('\n')
	}
	dropped := 0
	if sent > 0 {
		dropped = (sent - received) * 100 / sent
	}
	fmt.Fprintf(&b, "*** Results: %d%% dropped (%d/%d received)\n", dropped, received, sent)
	return b.String()
}

func (n *network) ping(src, dst string) ports.ExecResult {
	if !n.isHost[src] {
		return ports.ExecResult{Stderr: fmt.Sprintf("*** Unknown host: %s\n", src), ExitCode: 1}
	}
	if !n.nodeSet[dst] {
		return ports.ExecResult{Stderr: fmt.Sprintf("ping: %s: Name or service not known\n", dst), ExitCode: 2}
	}
	if !n.reachable(src)[dst] {
		return ports.ExecResult{
			Stdout:   fmt.Sprintf("PING %s\n1 packets transmitted, 0 received, 100%% packet loss\n", dst),
			ExitCode: 1,
		}
	}
	return ports.ExecResult{Stdout: fmt.Sprintf("PING %s\n1 packets transmitted, 1 received, 0%% packet loss\n", dst)}
}
