package hal

import "sync"

// SimPins is an in-memory pin bank. It stands in for real GPIO in the
// simulator and in tests. All lines start low: buttons released, doors
// closed.
type SimPins struct {
	mu     sync.RWMutex
	levels [NumPins]bool
	writes uint64
}

// NewSimPins returns a pin bank with every line low.
func NewSimPins() *SimPins {
	return &SimPins{}
}

// Read returns the level of p.
func (s *SimPins) Read(p Pin) bool {
	if p < 0 || p >= NumPins {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.levels[p]
}

// Write sets the level of p.
func (s *SimPins) Write(p Pin, high bool) {
	if p < 0 || p >= NumPins {
		return
	}
	s.mu.Lock()
	s.levels[p] = high
	s.writes++
	s.mu.Unlock()
}

// Writes returns how many writes the bank has seen.
func (s *SimPins) Writes() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// SetButton presses or releases the button of d.
func (s *SimPins) SetButton(d Door, pressed bool) {
	s.Write(buttonPin(d), pressed)
}

// SetDoorOpen opens or closes d. An open door releases its switch line.
func (s *SimPins) SetDoorOpen(d Door, open bool) {
	s.Write(switchPin(d), open)
}

// Lock returns the lock state read back from the magnet line of d.
func (s *SimPins) Lock(d Door) LockState {
	if !d.Valid() {
		return Locked
	}
	if s.Read(magnetPins[d]) {
		return Locked
	}
	return Unlocked
}

// LED returns the state of the status LED of d.
func (s *SimPins) LED(d Door) (on bool, c Color) {
	if !d.Valid() {
		return false, 0
	}
	p := ledPins[d]
	return DecodeLED(s.Read(p[0]), s.Read(p[1]), s.Read(p[2]))
}

func buttonPin(d Door) Pin {
	if d == Door2 {
		return PinButton2
	}
	return PinButton1
}

func switchPin(d Door) Pin {
	if d == Door2 {
		return PinSwitch2
	}
	return PinSwitch1
}
