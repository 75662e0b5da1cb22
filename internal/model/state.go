package model

import "math"

// State is the review state of a proposal as reported by the evolution feed.
type State string

// The closed set of review states, declared in display-rank order. Sorting by
// review status uses this declaration order, not the alphabetical order of the
// raw strings.
const (
	StateAccepted            State = "accepted"
	StateActiveReview        State = "activeReview"
	StateImplemented         State = "implemented"
	StatePreviewing          State = "previewing"
	StateRejected            State = "rejected"
	StateReturnedForRevision State = "returnedForRevision"
	StateWithdrawn           State = "withdrawn"

	// StateUnknown is the catch-all for feed values outside the closed set.
	StateUnknown State = "unknown"
)

// KnownStates lists the closed set in rank order, excluding the unknown
// catch-all.
var KnownStates = []State{
	StateAccepted,
	StateActiveReview,
	StateImplemented,
	StatePreviewing,
	StateRejected,
	StateReturnedForRevision,
	StateWithdrawn,
}

// ParseState maps a raw feed string onto the closed set, falling back to
// StateUnknown for anything unrecognized.
func ParseState(raw string) State {
	switch s := State(raw); s {
	case StateAccepted, StateActiveReview, StateImplemented, StatePreviewing,
		StateRejected, StateReturnedForRevision, StateWithdrawn:
		return s
	}
	return StateUnknown
}

// Rank returns the fixed ordering index of the state. The unknown state ranks
// after every known state.
func (s State) Rank() int {
	switch s {
	case StateAccepted:
		return 0
	case StateActiveReview:
		return 1
	case StateImplemented:
		return 2
	case StatePreviewing:
		return 3
	case StateRejected:
		return 4
	case StateReturnedForRevision:
		return 5
	case StateWithdrawn:
		return 6
	}
	return math.MaxInt32
}

// Title returns the human-readable label shown for the state.
func (s State) Title() string {
	switch s {
	case StateAccepted:
		return "Accepted"
	case StateActiveReview:
		return "Active Review"
	case StateImplemented:
		return "Implemented"
	case StatePreviewing:
		return "Previewing"
	case StateRejected:
		return "Rejected"
	case StateReturnedForRevision:
		return "Returned"
	case StateWithdrawn:
		return "Withdrawn"
	}
	return "Unknown"
}
