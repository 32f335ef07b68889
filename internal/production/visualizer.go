package production

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/comalice/hsm/door"
)

// ExportDOT generates Graphviz DOT source for the door control table. The
// current state is filled; fault is drawn in red.
func ExportDOT(transitions []door.Transition, current door.StateID) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph DoorControl {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)

	for _, s := range door.States() {
		buf.WriteString(renderState(s, s == current))
	}
	buf.WriteString("  \"start\" [shape=point];\n")
	buf.WriteString(fmt.Sprintf("  %q -> %q [style=dashed];\n", "start", door.StateInit))

	for _, e := range collectEdges(transitions) {
		style := ""
		if e.Timer {
			style = ` style=dotted`
		}
		buf.WriteString(fmt.Sprintf("  %q -> %q [label=%q%s];\n", e.From, e.To, e.Label, style))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// Edge is one rendered transition.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
	Timer bool   `json:"timer,omitempty"`
}

// ExportJSON serializes the transition table.
func ExportJSON(transitions []door.Transition) ([]byte, error) {
	return json.MarshalIndent(collectEdges(transitions), "", "  ")
}

func collectEdges(transitions []door.Transition) []Edge {
	edges := make([]Edge, 0, len(transitions))
	for _, t := range transitions {
		label := t.Event.String()
		if t.Timer {
			label = "open timeout"
		}
		edges = append(edges, Edge{
			From:  t.From.String(),
			To:    t.To.String(),
			Label: label,
			Timer: t.Timer,
		})
	}
	return edges
}

func renderState(s door.StateID, active bool) string {
	style := ""
	switch {
	case active:
		style = ` style="rounded,filled" fillcolor=lightgreen`
	case s == door.StateFault:
		style = ` color=red`
	}
	return fmt.Sprintf("  %q [label=%q%s];\n", s, s, style)
}
