package status

import (
	"fmt"
	"sync/atomic"

	"github.com/lixenwraith/fabrik/ik"
)

// State classifies a chain's most recent solve
type State uint32

const (
	StateIdle State = iota
	StateSearching
	StateConverged
	StateUnreachable
	StateCached
	StateHolding
)

var stateNames = [...]string{
	StateIdle:        "idle",
	StateSearching:   "searching",
	StateConverged:   "converged",
	StateUnreachable: "unreachable",
	StateCached:      "cached",
	StateHolding:     "holding",
}

// StateOf maps a solve result to its state; flags are checked from most to least specific
func StateOf(res ik.SolveResult) State {
	switch {
	case res.Followed:
		return StateHolding
	case res.Cached:
		return StateCached
	case res.Converged:
		return StateConverged
	case res.Unreachable:
		return StateUnreachable
	}
	return StateSearching
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint32(s))
}

// Settled reports whether the end effector sits on its target
func (s State) Settled() bool {
	return s == StateConverged || s == StateCached
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown solve state %q", text)
}

// AtomicState holds a State; the zero value reads StateIdle
type AtomicState struct {
	v atomic.Uint32
}

func (a *AtomicState) Store(s State) { a.v.Store(uint32(s)) }
func (a *AtomicState) Load() State   { return State(a.v.Load()) }
