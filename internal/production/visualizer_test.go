package production

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/hsm/door"
)

func TestExportDOT(t *testing.T) {
	dot := ExportDOT(door.Transitions(), door.StateDoor1Open)

	assert.True(t, strings.HasPrefix(dot, "digraph DoorControl {"))
	assert.True(t, strings.HasSuffix(dot, "}\n"))
	for _, s := range door.States() {
		assert.Contains(t, dot, `"`+s.String()+`" [label=`)
	}
	assert.Contains(t, dot, `"door1-open" [label="door1-open" style="rounded,filled" fillcolor=lightgreen];`)
	assert.Contains(t, dot, `"fault" [label="fault" color=red];`)
	assert.Contains(t, dot, `"idle" -> "door1-unlocked" [label="door1-unlock"];`)
	assert.Contains(t, dot, `"door2-open" -> "fault" [label="open timeout" style=dotted];`)
	assert.Contains(t, dot, `"start" -> "init"`)
	assert.Equal(t, len(door.Transitions()), strings.Count(dot, "[label=\"")-len(door.States()))
}

func TestExportDOT_NoCurrent(t *testing.T) {
	dot := ExportDOT(door.Transitions(), door.StateNone)
	assert.NotContains(t, dot, "lightgreen")
}

func TestExportJSON(t *testing.T) {
	data, err := ExportJSON(door.Transitions())
	require.NoError(t, err)

	var edges []Edge
	require.NoError(t, json.Unmarshal(data, &edges))
	require.Len(t, edges, len(door.Transitions()))
	assert.Equal(t, Edge{From: "init", To: "idle", Label: "doors-closed"}, edges[0])
}
