// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package topology

import (
	"bytes"
	"fmt"
	"text/template"
)

// MininetTopoName is the name the rendered script registers under `topos`.
const MininetTopoName = "topod"

var mininetTmpl = template.Must(template.New("mn").Parse(`# Generated by topod: {{.Kind}} ({{.Mode}}), {{len .Hosts}} hosts.
from mininet.topo import Topo


class TopodTopo(Topo):
    def build(self):
{{- range .Switches}}
        {{.}} = self.addSwitch('{{.}}')
{{- end}}
{{- range .Hosts}}
        {{.}} = self.addHost('{{.}}')
{{- end}}
{{- range .Links}}
        self.addLink({{.A}}, {{.B}})
{{- end}}
{{- if and (not .Switches) (not .Hosts)}}
        pass
{{- end}}


topos = {'{{.Name}}': (lambda: TopodTopo())}
`))

// RenderMininetScript renders g as a Mininet --custom topology file.
func RenderMininetScript(g Graph) ([]byte, error) {
	var buf bytes.Buffer
	err := mininetTmpl.Execute(&buf, struct {
		Graph
		Name string
	}{g, MininetTopoName})
	if err != nil {
		return nil, fmt.Errorf("render mininet topology: %w", err)
	}
	return buf.Bytes(), nil
}
