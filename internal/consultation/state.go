package consultation

import "fmt"

// State is a node of the acquisition state machine.
type State string

const (
	StateInit              State = "INIT"
	StateFormLoaded        State = "FORM_LOADED"
	StateSubmitted         State = "SUBMITTED"
	StateChallengeBlocked  State = "CHALLENGE_BLOCKED"
	StateResultLoaded      State = "RESULT_LOADED"
	StateCardCaptured      State = "CARD_CAPTURED"
	StateQSANavAttempted   State = "QSA_NAV_ATTEMPTED"
	StateRosterCaptured    State = "ROSTER_CAPTURED"
	StateRosterUnavailable State = "ROSTER_UNAVAILABLE"
	StateFailed            State = "FAILED"
	StateDone              State = "DONE"
)

var transitions = map[State][]State{
	StateInit:              {StateFormLoaded},
	StateFormLoaded:        {StateSubmitted},
	StateSubmitted:         {StateChallengeBlocked, StateResultLoaded},
	StateResultLoaded:      {StateCardCaptured},
	StateCardCaptured:      {StateQSANavAttempted},
	StateQSANavAttempted:   {StateRosterCaptured, StateRosterUnavailable},
	StateChallengeBlocked:  {StateDone},
	StateRosterCaptured:    {StateDone},
	StateRosterUnavailable: {StateDone},
	StateFailed:            {StateDone},
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s State) bool {
	return s == StateDone
}

func isAllowedTransition(from, to State) bool {
	if to == StateFailed {
		return from != StateFailed && from != StateDone
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// machine tracks the current state and every state visited.
type machine struct {
	current State
	trace   []State
}

func newMachine() *machine {
	return &machine{current: StateInit, trace: []State{StateInit}}
}

func (m *machine) advance(to State) error {
	if !isAllowedTransition(m.current, to) {
		return fmt.Errorf("disallowed transition %s -> %s", m.current, to)
	}
	m.current = to
	m.trace = append(m.trace, to)
	return nil
}

func (m *machine) Trace() []State {
	out := make([]State, len(m.trace))
	copy(out, m.trace)
	return out
}
