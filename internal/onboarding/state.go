package onboarding

import "fmt"

// State is a step of a single submission. Committed and Failed are terminal.
type State string

const (
	StateReceived      State = "received"
	StatePolicyChecked State = "policy_checked"
	StateScored        State = "scored"
	StateKeyDerived    State = "key_derived"
	StateCommitting    State = "committing"
	StateCommitted     State = "committed"
	StateFailed        State = "failed"
)

var transitions = map[State][]State{
	StateReceived:      {StatePolicyChecked, StateFailed},
	StatePolicyChecked: {StateScored},
	StateScored:        {StateKeyDerived},
	StateKeyDerived:    {StateCommitting},
	StateCommitting:    {StateCommitted, StateFailed},
}

func (s State) IsTerminal() bool {
	return s == StateCommitted || s == StateFailed
}

// CanTransition reports whether to directly follows s.
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionHook observes every state change of a submission.
type TransitionHook func(requestID string, from, to State)

type tracker struct {
	requestID string
	state     State
	visited   map[State]bool
	hook      TransitionHook
}

func newTracker(requestID string, start State, hook TransitionHook) *tracker {
	return &tracker{
		requestID: requestID,
		state:     start,
		visited:   map[State]bool{start: true},
		hook:      hook,
	}
}

// advance moves to the next state. States are never re-entered.
func (t *tracker) advance(to State) error {
	if !t.state.CanTransition(to) || t.visited[to] {
		return fmt.Errorf("onboarding: invalid transition %s -> %s", t.state, to)
	}
	from := t.state
	t.state = to
	t.visited[to] = true
	if t.hook != nil {
		t.hook(t.requestID, from, to)
	}
	return nil
}

func (t *tracker) fail() {
	if t.state.IsTerminal() {
		return
	}
	// Pipeline stages without an explicit failure edge still end in Failed.
	from := t.state
	t.state = StateFailed
	if t.hook != nil {
		t.hook(t.requestID, from, StateFailed)
	}
}
