// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/comalice/hsm"
	"github.com/comalice/hsm/internal/production"
)

// Tick moves every generated table to its next state.
const Tick hsm.EventID = 1

// Bubble is only handled by compound states of deep tables.
const Bubble hsm.EventID = 2

// GenFlatTable creates a flat table with n states cycling on Tick.
func GenFlatTable(n int) *hsm.Table {
	if n < 1 {
		n = 1
	}
	b := hsm.NewBuilder()
	var table *hsm.Table
	for i := 0; i < n; i++ {
		next := hsm.StateID((i + 1) % n)
		b.State(fmt.Sprintf("s%d", i), hsm.WithHandler(func(m *hsm.Machine, evt hsm.EventID) hsm.Result {
			if evt != Tick {
				return hsm.Unhandled
			}
			return hsm.Switch(m, table.State(next))
		}))
	}
	table = mustBuild(b)
	return table
}

// GenDeepTable creates depth nested compound states c0..c{depth-1} with two
// leaves at the bottom that flip on Tick. Every compound state handles Bubble.
func GenDeepTable(depth int) *hsm.Table {
	if depth < 1 {
		depth = 1
	}
	b := hsm.NewBuilder()
	handleBubble := func(_ *hsm.Machine, evt hsm.EventID) hsm.Result {
		if evt == Bubble {
			return hsm.Handled
		}
		return hsm.Unhandled
	}
	parent := ""
	for i := 0; i < depth; i++ {
		name := fmt.Sprintf("c%d", i)
		opts := []hsm.StateOption{hsm.WithHandler(handleBubble)}
		if parent != "" {
			opts = append(opts, hsm.WithParent(parent))
		}
		b.State(name, opts...)
		parent = name
	}

	var table *hsm.Table
	flip := func(to string) hsm.Handler {
		return func(m *hsm.Machine, evt hsm.EventID) hsm.Result {
			if evt != Tick {
				return hsm.Unhandled
			}
			return hsm.Traverse(m, table.MustLookup(to))
		}
	}
	b.State("leaf1", hsm.WithParent(parent), hsm.WithHandler(flip("leaf2")))
	b.State("leaf2", hsm.WithParent(parent), hsm.WithHandler(flip("leaf1")))
	table = mustBuild(b)
	return table
}

// GenSettingsYAML returns a sealed settings document as stored on disk.
func GenSettingsYAML() []byte {
	s := production.DefaultSettings()
	s.Seal(production.StandardSeed)
	data, err := yaml.Marshal(s)
	if err != nil {
		panic(err)
	}
	return data
}

func mustBuild(b *hsm.Builder) *hsm.Table {
	table, err := b.Build()
	if err != nil {
		panic(err)
	}
	return table
}
