// Bid session aggregate and state definitions.
package bid

import (
	"time"

	"drover/internal/types"
)

type State string

const (
	StateNone             State = "none"
	StateEditing          State = "editing"
	StateConfirming       State = "confirming"
	StateSubmitting       State = "submitting"
	StateListening        State = "listening"
	StateAccepted         State = "accepted"
	StateDeclinedByDriver State = "declined_by_driver"
	StateExpired          State = "expired"
	StateCancelledByRider State = "cancelled_by_rider"
	StateSubmissionFailed State = "submission_failed"
)

const (
	// Bid bounds in cents, process-wide.
	MinBid int64 = 500
	MaxBid int64 = 50000

	// DefaultListenTimeout caps how long a submitted bid waits for a
	// rider response.
	DefaultListenTimeout = 5 * time.Minute
)

// AllowedTransitions represents the session state flow (diagram) as code.
// SubmissionFailed -> Editing is the only backward edge: a failed submit
// is surfaced and then the draft becomes editable again.
var AllowedTransitions = map[State][]State{
	StateEditing:          {StateConfirming, StateDeclinedByDriver},
	StateConfirming:       {StateEditing, StateSubmitting, StateDeclinedByDriver},
	StateSubmitting:       {StateListening, StateSubmissionFailed},
	StateSubmissionFailed: {StateEditing, StateDeclinedByDriver},
	StateListening:        {StateAccepted, StateCancelledByRider, StateExpired, StateDeclinedByDriver},
}

func CanTransition(from, to State) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a session in this state can never transition again.
func (s State) Terminal() bool {
	switch s {
	case StateAccepted, StateDeclinedByDriver, StateExpired, StateCancelledByRider:
		return true
	}
	return false
}

// Event is one audit-log row; every state transition appends one.
type Event struct {
	ID            int64
	SessionID     types.ID
	RideRequestID types.ID
	DriverID      types.ID
	FromState     State
	ToState       State
	Amount        *int64
	CreatedAt     time.Time
}

// Acceptance is the payload delivered when the rider accepts the bid.
type Acceptance struct {
	RideRequestID types.ID
	Amount        int64
	RiderName     string
	PickupAddress string
}

// Cancellation is the payload delivered when the rider cancels the request.
type Cancellation struct {
	RideRequestID types.ID
	Reason        string
}

// Snapshot is a read-only copy of session state for status queries.
type Snapshot struct {
	ID              types.ID
	RideRequestID   types.ID
	DriverID        types.ID
	State           State
	WorkingAmount   int64
	SubmittedAmount *int64
	DefaultAmount   int64
	Deadline        *time.Time
	LastError       *SubmitError
	Closed          bool
}
