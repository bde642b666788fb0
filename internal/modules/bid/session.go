// Session runtime state and the guarded terminal transition.
//
// Three event sources race to finish a session: the rider notification
// goroutine, the listen timer and the driver's own close action. No
// ordering is assumed between them; whichever performs the first
// successful compare-and-set on the closed flag wins, every other
// attempt is a silent no-op.
package bid

import (
	"sync"
	"time"

	"drover/internal/types"
)

type Session struct {
	ID            types.ID
	RideRequestID types.ID
	DriverID      types.ID

	mu            sync.Mutex
	state         State
	working       int64
	submitted     *int64
	defaultAmount int64
	closed        bool
	lastErr       *SubmitError
	deadline      time.Time
	timer         *time.Timer
	unsub         Unsubscribe
	callbacks     Callbacks
}

func newSession(id, rideRequestID, driverID types.ID, defaultAmount int64, cb Callbacks) *Session {
	amount, _ := Clamp(defaultAmount)
	return &Session{
		ID:            id,
		RideRequestID: rideRequestID,
		DriverID:      driverID,
		state:         StateEditing,
		working:       amount,
		defaultAmount: amount,
		callbacks:     cb,
	}
}

// close is the single terminal transition point. It flips the closed
// flag exactly once and hands back a cleanup func that disarms the
// timer and tears down the subscription; cleanup runs outside the lock
// and is safe to call on any path. ok is false when another event
// already won or the transition is not legal from the current state
// (e.g. close while submitting).
func (s *Session) close(to State) (from State, cleanup func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !CanTransition(s.state, to) {
		return s.state, nil, false
	}
	from = s.state
	s.closed = true
	s.state = to

	timer := s.timer
	unsub := s.unsub
	s.timer = nil
	s.unsub = nil
	cleanup = func() {
		if timer != nil {
			timer.Stop()
		}
		if unsub != nil {
			unsub()
		}
	}
	return from, cleanup, true
}

// adjustWorking applies fn to the working amount. Only legal while the
// draft is editable; a rejected draft never overwrites the stored value.
func (s *Session) adjustWorking(fn func(current int64) (int64, Boundary, error)) (int64, Boundary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.working, BoundaryNone, ErrSessionClosed
	}
	if s.state != StateEditing {
		return s.working, BoundaryNone, ErrInvalidState
	}
	next, boundary, err := fn(s.working)
	if err != nil {
		return s.working, BoundaryNone, err
	}
	s.working = next
	return next, boundary, nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:            s.ID,
		RideRequestID: s.RideRequestID,
		DriverID:      s.DriverID,
		State:         s.state,
		WorkingAmount: s.working,
		DefaultAmount: s.defaultAmount,
		Closed:        s.closed,
	}
	if s.submitted != nil {
		v := *s.submitted
		snap.SubmittedAmount = &v
	}
	if !s.deadline.IsZero() {
		d := s.deadline
		snap.Deadline = &d
	}
	if s.lastErr != nil {
		e := *s.lastErr
		snap.LastError = &e
	}
	return snap
}
