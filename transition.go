package hsm

// Switch makes target the current state of m, then runs the exit function of
// the previous state and the entry function of target. No hierarchy is
// walked. It returns TriggeredToSelf if either function reported it. Any
// other result than Handled or TriggeredToSelf aborts the switch and is
// returned as is; the current state is already target at that point.
func Switch(m *Machine, target *State) Result {
	source := m.current
	m.current = target
	triggered := false

	if source != nil {
		if r, ok := m.execute(source.Exit, &triggered); !ok {
			return r
		}
	}
	if r, ok := m.execute(target.Entry, &triggered); !ok {
		return r
	}
	if triggered {
		return TriggeredToSelf
	}
	return Handled
}

// Traverse makes target the current state of m and walks the hierarchy
// between the two: exit functions from the source up to, but excluding, the
// lowest common ancestor, then entry functions from below that ancestor down
// to target. Both states must carry correct levels.
func Traverse(m *Machine, target *State) Result {
	source := m.current
	if source == nil {
		return Switch(m, target)
	}
	m.current = target
	triggered := false
	var path []*State

	// Equalize levels.
	for source.Level > target.Level {
		if r, ok := m.execute(source.Exit, &triggered); !ok {
			return r
		}
		source = source.Parent
	}
	for target.Level > source.Level {
		path = append(path, target)
		target = target.Parent
	}

	// Climb both sides until they share a parent.
	for source.Parent != target.Parent {
		if r, ok := m.execute(source.Exit, &triggered); !ok {
			return r
		}
		source = source.Parent
		path = append(path, target)
		target = target.Parent
	}

	if r, ok := m.execute(source.Exit, &triggered); !ok {
		return r
	}
	if r, ok := m.execute(target.Entry, &triggered); !ok {
		return r
	}
	for i := len(path) - 1; i >= 0; i-- {
		if r, ok := m.execute(path[i].Entry, &triggered); !ok {
			return r
		}
	}
	if triggered {
		return TriggeredToSelf
	}
	return Handled
}
