// Package conversation runs the drive-thru dialogue: it sequences turns
// through a state machine, mutates the order and recovers from noisy or
// failed input.
package conversation

import (
	"errors"
	"fmt"
	"slices"
)

// State is the conversation's position in the ordering flow
type State string

const (
	Greeting      State = "greeting"
	TakingOrder   State = "taking_order"
	Clarifying    State = "clarifying"
	ErrorRecovery State = "error_recovery"
	OrderComplete State = "order_complete"
	Payment       State = "payment"
	Goodbye       State = "goodbye"
)

// States lists every state
var States = []State{Greeting, TakingOrder, Clarifying, ErrorRecovery, OrderComplete, Payment, Goodbye}

// ErrIllegalTransition is returned when a handler targets a state the
// current state may not move to
var ErrIllegalTransition = errors.New("illegal state transition")

// transitions declares the legal targets of each state's handler. Staying
// in the current state is not a transition. The low-confidence and
// confusion paths bypass handlers and are not governed by this table, but
// they never leave Goodbye.
var transitions = map[State][]State{
	Greeting:      {TakingOrder},
	TakingOrder:   {Clarifying, OrderComplete, TakingOrder, ErrorRecovery},
	Clarifying:    {TakingOrder},
	ErrorRecovery: {Greeting, TakingOrder, Clarifying, OrderComplete, Payment, Goodbye},
	OrderComplete: {Payment},
	Payment:       {Goodbye},
	Goodbye:       {},
}

// CanTransition reports whether from may move to to
func CanTransition(from, to State) bool {
	if from == to {
		return true
	}
	return slices.Contains(transitions[from], to)
}

func checkTransition(from, to State) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}
