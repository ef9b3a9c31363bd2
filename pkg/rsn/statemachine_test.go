package rsn

import (
	"errors"
	"testing"
)

func TestStateMachineReplace(t *testing.T) {
	m := NewStateMachine(1)
	m.ReplaceState(func(s int) int { return s + 1 })
	if m.State() != 2 {
		t.Errorf("State() = %d, want 2", m.State())
	}
	m.ReplaceState(func(s int) int { return s })
	if m.State() != 2 {
		t.Errorf("State() = %d after identity transition, want 2", m.State())
	}
}

func TestStateMachineReplaceE(t *testing.T) {
	m := NewStateMachine("initial")

	failure := errors.New("transition failed")
	err := m.ReplaceStateE(func(s string) (string, error) {
		return s, failure
	})
	if !errors.Is(err, failure) {
		t.Errorf("ReplaceStateE() error = %v, want %v", err, failure)
	}
	if m.State() != "initial" {
		t.Errorf("State() = %q after failed transition, want %q", m.State(), "initial")
	}

	if err := m.ReplaceStateE(func(s string) (string, error) {
		return "next", nil
	}); err != nil {
		t.Fatalf("ReplaceStateE() error: %v", err)
	}
	if m.State() != "next" {
		t.Errorf("State() = %q, want %q", m.State(), "next")
	}
}

// Transitions must consume the previous state: key material moved into
// the successor is not duplicated.
func TestStateMachineOwnership(t *testing.T) {
	type holder struct{ key []byte }

	m := NewStateMachine(holder{key: []byte{1, 2, 3}})
	var taken []byte
	m.ReplaceState(func(s holder) holder {
		taken = s.key
		return holder{}
	})
	if m.State().key != nil {
		t.Error("previous state still holds the key")
	}
	if len(taken) != 3 {
		t.Error("key was not moved to the transition")
	}
}
