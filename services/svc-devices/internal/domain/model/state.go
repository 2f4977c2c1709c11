package model

import (
	"fmt"
	"strings"
)

type State string

const (
	StateAvailable State = "available"
	StateInUse     State = "in-use"
	StateInactive  State = "inactive"
)

func (s State) String() string {
	return string(s)
}

func (s State) IsValid() bool {
	switch s {
	case StateAvailable, StateInUse, StateInactive:
		return true
	default:
		return false
	}
}

func ParseState(s string) (State, error) {
	state := State(strings.ToLower(strings.TrimSpace(s)))
	if !state.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, s)
	}

	return state, nil
}

// UnmarshalText rejects unknown states while decoding filters and requests.
func (s *State) UnmarshalText(text []byte) error {
	state, err := ParseState(string(text))
	if err != nil {
		return err
	}

	*s = state

	return nil
}

func AllStates() []State {
	return []State{StateAvailable, StateInUse, StateInactive}
}
