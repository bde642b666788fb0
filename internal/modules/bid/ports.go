// Collaborator ports consumed by the bid engine. Concrete adapters live
// in internal/platform; tests use in-memory fakes.
package bid

import (
	"context"

	"drover/internal/types"
)

// RideRequestClient talks to the platform's ride-request service.
type RideRequestClient interface {
	// SubmitBid sends the frozen amount. Failures are reported as
	// *SubmitError so the session can surface cooldown/lock details.
	SubmitBid(ctx context.Context, rideRequestID types.ID, amount int64) error

	// DeclineRideRequest marks the request declined by this driver.
	// Best-effort compensating action; callers log and swallow errors.
	DeclineRideRequest(ctx context.Context, rideRequestID types.ID) error
}

// OutcomeHandler receives the rider-side pushes for one submitted bid.
type OutcomeHandler struct {
	OnAccepted  func(Acceptance)
	OnCancelled func(Cancellation)
	OnExpired   func()
}

// Unsubscribe tears down an outcome subscription. Idempotent.
type Unsubscribe func()

// Notifier delivers rider responses for a submitted bid and manages the
// driver's general listening mode.
type Notifier interface {
	SubscribeOutcome(ctx context.Context, rideRequestID, driverID types.ID, h OutcomeHandler) (Unsubscribe, error)

	// ResumeGeneralListening makes the driver eligible for new ride
	// requests again after a bid resolves without a trip.
	ResumeGeneralListening(ctx context.Context, driverID types.ID) error
}

// Callbacks surface the single terminal outcome (or a retryable submit
// failure) to the UI layer. At most one of OnAccepted, OnCancelled and
// OnExpired ever fires for a session; OnSubmissionFailed may fire any
// number of times since submits are retryable.
type Callbacks struct {
	OnAccepted         func(Acceptance)
	OnCancelled        func(Cancellation)
	OnExpired          func()
	OnSubmissionFailed func(*SubmitError)
}
