package rsn

// StateMachine is a single slot container for a state value. State
// transitions consume the current state and produce its successor, so
// key material held by a state is moved rather than shared when the
// machine advances.
type StateMachine[S any] struct {
	state S
}

// NewStateMachine returns a machine holding the given initial state.
func NewStateMachine[S any](initial S) StateMachine[S] {
	return StateMachine[S]{state: initial}
}

// State returns the current state.
func (m *StateMachine[S]) State() S {
	return m.state
}

// ReplaceState advances the machine by applying f to the current
// state. Returning the input unchanged keeps the machine where it is.
func (m *StateMachine[S]) ReplaceState(f func(S) S) {
	m.state = f(m.state)
}

// ReplaceStateE is ReplaceState for transitions that can fail. On
// error the machine keeps the state returned by f, which by
// convention is the unchanged input.
func (m *StateMachine[S]) ReplaceStateE(f func(S) (S, error)) error {
	next, err := f(m.state)
	m.state = next
	return err
}
