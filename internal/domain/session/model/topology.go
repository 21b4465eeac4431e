// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package model

// Link joins two named nodes.
type Link struct {
	A string `json:"a"`
	B string `json:"b"`
}

// TopologyInfo summarises a live topology for clients.
type TopologyInfo struct {
	Handle    string       `json:"handle"`
	Kind      TopologyKind `json:"kind"`
	Mode      Mode         `json:"mode"`
	NodeCount uint         `json:"node_count"`
	Hosts     []string     `json:"hosts"`
	Switches  []string     `json:"switches"`
	Links     []Link       `json:"links"`
}
