// Outcome dispatcher: the one place terminal outcomes leave the engine.
package bid

import "context"

// Outcome carries the resolved terminal state and its payload.
type Outcome struct {
	State        State
	Acceptance   Acceptance
	Cancellation Cancellation
}

// resolve is invoked by all three racing event sources. The closed-flag
// compare-and-set inside Session.close picks exactly one winner; losers
// return without side effects. Cleanup (timer, subscription) is
// idempotent and runs on every winning path before dispatch.
func (s *Service) resolve(sess *Session, out Outcome) {
	from, cleanup, ok := sess.close(out.State)
	if !ok {
		return
	}
	cleanup()
	s.removeSession(sess)
	s.dispatch(sess, from, out)
}

// dispatch fires the caller's callback for the outcome and performs the
// compensating action it implies. Called exactly once per session.
func (s *Service) dispatch(sess *Session, from State, out Outcome) {
	ctx := context.Background()
	s.appendEvent(ctx, sess, from, out.State)
	cb := sess.callbacks

	switch out.State {
	case StateAccepted:
		// Rider took the bid; the trip flow takes over. No decline, no
		// return to general listening.
		if cb.OnAccepted != nil {
			cb.OnAccepted(out.Acceptance)
		}

	case StateCancelledByRider:
		if cb.OnCancelled != nil {
			cb.OnCancelled(out.Cancellation)
		}
		s.resumeGeneralListening(ctx, sess)

	case StateExpired:
		// Local timeout and remote expiry land here alike. Expiry is a
		// normal outcome, not a decline.
		if cb.OnExpired != nil {
			cb.OnExpired()
		}
		s.resumeGeneralListening(ctx, sess)

	case StateDeclinedByDriver:
		// Best-effort compensation; a failed decline must not block the
		// sheet from closing.
		if s.rides != nil {
			if err := s.rides.DeclineRideRequest(ctx, sess.RideRequestID); err != nil {
				s.logger.Warn("decline ride request failed",
					"ride_request_id", string(sess.RideRequestID), "error", err)
			}
		}
	}

	s.logger.Info("bid session resolved",
		"session_id", string(sess.ID),
		"ride_request_id", string(sess.RideRequestID),
		"driver_id", string(sess.DriverID),
		"outcome", string(out.State))
}

func (s *Service) resumeGeneralListening(ctx context.Context, sess *Session) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.ResumeGeneralListening(ctx, sess.DriverID); err != nil {
		s.logger.Warn("resume general listening failed",
			"driver_id", string(sess.DriverID), "error", err)
	}
}
