package submission

import (
	"fmt"
	"time"
)

// State is a step of the submission state machine
type State int

// Submission states, in protocol order
const (
	StateValidating State = iota
	StateAcquiringKey
	StateWritingPublic
	StateWritingPrivate
	StateWritingLovedOnes
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateValidating:       "validating",
	StateAcquiringKey:     "acquiring_key",
	StateWritingPublic:    "writing_public",
	StateWritingPrivate:   "writing_private",
	StateWritingLovedOnes: "writing_loved_ones",
	StateDone:             "done",
	StateFailed:           "failed",
}

var transitions = map[State][]State{
	StateValidating:       {StateAcquiringKey, StateFailed},
	StateAcquiringKey:     {StateWritingPublic, StateFailed},
	StateWritingPublic:    {StateWritingPrivate, StateFailed},
	StateWritingPrivate:   {StateWritingLovedOnes, StateFailed},
	StateWritingLovedOnes: {StateDone},
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText writes the state name
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Terminal reports whether no transition leaves s
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// CanTransition reports whether the machine may move from s to next
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Event is published on every state transition of a submission
type Event struct {
	State   State     `json:"state"`
	CaseKey string    `json:"caseKey,omitempty"`
	Kind    Kind      `json:"kind,omitempty"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// Observer receives submission events. It is called from the submitting
// goroutine and must not block.
type Observer func(Event)
