package hsm

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNilState       = errors.New("nil state")
	ErrDuplicateState = errors.New("duplicate state")
	ErrUnknownParent  = errors.New("unknown parent state")
	ErrLevel          = errors.New("state level not greater than parent level")
	ErrCycle          = errors.New("parent cycle")
	ErrUnknownState   = errors.New("unknown state")
)

// Table is a validated set of states indexed by ID and name.
type Table struct {
	states []*State
	byID   map[StateID]*State
	byName map[string]*State
}

// NewTable validates states and indexes them.
func NewTable(states ...*State) (*Table, error) {
	t := &Table{
		byID:   make(map[StateID]*State, len(states)),
		byName: make(map[string]*State, len(states)),
	}
	for _, s := range states {
		if s == nil {
			return nil, ErrNilState
		}
		if _, exists := t.byID[s.ID]; exists {
			return nil, fmt.Errorf("%w: id %d", ErrDuplicateState, s.ID)
		}
		if s.Name != "" {
			if _, exists := t.byName[s.Name]; exists {
				return nil, fmt.Errorf("%w: name %q", ErrDuplicateState, s.Name)
			}
			t.byName[s.Name] = s
		}
		t.byID[s.ID] = s
		t.states = append(t.states, s)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	sort.SliceStable(t.states, func(i, j int) bool {
		return t.states[i].ID < t.states[j].ID
	})
	return t, nil
}

// Validate checks that every parent belongs to the table and has a strictly
// lower level than its children.
func (t *Table) Validate() error {
	for _, s := range t.states {
		if s.Parent == nil {
			continue
		}
		if t.byID[s.Parent.ID] != s.Parent {
			return fmt.Errorf("%w: %s -> %s", ErrUnknownParent, s, s.Parent)
		}
		if s.Parent.Level >= s.Level {
			return fmt.Errorf("%w: %s (%d) under %s (%d)", ErrLevel, s, s.Level, s.Parent, s.Parent.Level)
		}
	}
	return nil
}

// State returns the state with the given ID, or nil.
func (t *Table) State(id StateID) *State { return t.byID[id] }

// Lookup returns the state with the given name.
func (t *Table) Lookup(name string) (*State, bool) {
	s, ok := t.byName[name]
	return s, ok
}

// MustLookup is Lookup for names known to exist. It panics otherwise.
func (t *Table) MustLookup(name string) *State {
	s, ok := t.byName[name]
	if !ok {
		panic(fmt.Sprintf("hsm: %v: %q", ErrUnknownState, name))
	}
	return s
}

// States returns the states ordered by ID.
func (t *Table) States() []*State {
	out := make([]*State, len(t.states))
	copy(out, t.states)
	return out
}

// Len returns the number of states.
func (t *Table) Len() int { return len(t.states) }

// Builder assembles a Table from named states. Parents are referenced by name
// and levels are derived from the parent chain.
type Builder struct {
	nextID StateID
	order  []string
	specs  map[string]*stateSpec
	err    error
}

type stateSpec struct {
	state  *State
	parent string
	hasID  bool
}

// StateOption configures a state declared on a Builder.
type StateOption func(*stateSpec)

// WithID pins the state's ID instead of taking the next free one.
func WithID(id StateID) StateOption {
	return func(s *stateSpec) {
		s.state.ID = id
		s.hasID = true
	}
}

// WithParent nests the state under the named parent.
func WithParent(name string) StateOption {
	return func(s *stateSpec) {
		s.parent = name
	}
}

// WithHandler sets the event handler.
func WithHandler(h Handler) StateOption {
	return func(s *stateSpec) {
		s.state.Handler = h
	}
}

// WithEntry sets the entry function.
func WithEntry(h Handler) StateOption {
	return func(s *stateSpec) {
		s.state.Entry = h
	}
}

// WithExit sets the exit function.
func WithExit(h Handler) StateOption {
	return func(s *stateSpec) {
		s.state.Exit = h
	}
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{specs: make(map[string]*stateSpec)}
}

// State declares a state. Declaring the same name twice is an error reported
// by Build.
func (b *Builder) State(name string, opts ...StateOption) *Builder {
	if _, exists := b.specs[name]; exists {
		if b.err == nil {
			b.err = fmt.Errorf("%w: name %q", ErrDuplicateState, name)
		}
		return b
	}
	spec := &stateSpec{state: &State{Name: name}}
	for _, opt := range opts {
		opt(spec)
	}
	if !spec.hasID {
		spec.state.ID = b.nextID
	}
	if spec.state.ID >= b.nextID {
		b.nextID = spec.state.ID + 1
	}
	b.specs[name] = spec
	b.order = append(b.order, name)
	return b
}

// Build links parents, computes levels and validates the result.
func (b *Builder) Build() (*Table, error) {
	if b.err != nil {
		return nil, b.err
	}
	for _, name := range b.order {
		spec := b.specs[name]
		if spec.parent == "" {
			continue
		}
		parent, ok := b.specs[spec.parent]
		if !ok {
			return nil, fmt.Errorf("%w: %q (parent of %q)", ErrUnknownParent, spec.parent, name)
		}
		spec.state.Parent = parent.state
	}

	states := make([]*State, 0, len(b.order))
	for _, name := range b.order {
		s := b.specs[name].state
		level := 0
		for p := s.Parent; p != nil; p = p.Parent {
			level++
			if level > len(b.order) {
				return nil, fmt.Errorf("%w: %q", ErrCycle, name)
			}
		}
		s.Level = level
		states = append(states, s)
	}
	return NewTable(states...)
}
