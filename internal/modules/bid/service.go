// Bid service: session registry and the driver-facing operations.
package bid

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"drover/internal/types"
)

type Config struct {
	ListenTimeout time.Duration
}

type Service struct {
	store    *Store
	rides    RideRequestClient
	notifier Notifier
	cfg      Config
	logger   *slog.Logger

	mu    sync.Mutex
	byKey map[sessionKey]*Session
	byID  map[types.ID]*Session
}

type sessionKey struct {
	rideRequestID types.ID
	driverID      types.ID
}

func NewService(store *Store, rides RideRequestClient, notifier Notifier, cfg Config, logger *slog.Logger) *Service {
	if cfg.ListenTimeout <= 0 {
		cfg.ListenTimeout = DefaultListenTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		rides:    rides,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		byKey:    make(map[sessionKey]*Session),
		byID:     make(map[types.ID]*Session),
	}
}

type CreateCommand struct {
	RideRequestID types.ID
	DriverID      types.ID
	DefaultAmount int64
	Callbacks     Callbacks
}

// Create opens a bid session for a ride request shown to the driver.
// Only one live session per (ride request, driver) pair may exist.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Session, error) {
	if cmd.RideRequestID == "" || cmd.DriverID == "" {
		return nil, ErrBadRequest
	}
	key := sessionKey{cmd.RideRequestID, cmd.DriverID}

	s.mu.Lock()
	if existing, ok := s.byKey[key]; ok && !existing.isClosed() {
		s.mu.Unlock()
		return nil, ErrSessionActive
	}
	sess := newSession(newID(), cmd.RideRequestID, cmd.DriverID, cmd.DefaultAmount, cmd.Callbacks)
	s.byKey[key] = sess
	s.byID[sess.ID] = sess
	s.mu.Unlock()

	s.appendEvent(ctx, sess, StateNone, StateEditing)
	return sess, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

type AdjustResult struct {
	Amount   int64
	Boundary Boundary
}

// Adjust applies a step button (+/- amount or percent) to the draft.
// Adjusting outside the editing state is caller misuse and is rejected
// without mutating anything.
func (s *Service) Adjust(ctx context.Context, id types.ID, adj Adjustment, dir Direction) (AdjustResult, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return AdjustResult{}, err
	}
	amount, boundary, err := sess.adjustWorking(func(current int64) (int64, Boundary, error) {
		return ApplyAdjustment(current, adj, dir)
	})
	if err != nil {
		return AdjustResult{Amount: amount}, err
	}
	return AdjustResult{Amount: amount, Boundary: boundary}, nil
}

// SetManualAmount replaces the draft with a typed-in value. Non-numeric
// input is rejected and the previous draft survives.
func (s *Service) SetManualAmount(ctx context.Context, id types.ID, text string) (AdjustResult, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return AdjustResult{}, err
	}
	amount, boundary, err := sess.adjustWorking(func(current int64) (int64, Boundary, error) {
		cents, perr := types.ParseAmount(text)
		if perr != nil {
			return current, BoundaryNone, &ValidationError{Reason: "not a number"}
		}
		clamped, b := Clamp(cents)
		return clamped, b, nil
	})
	if err != nil {
		return AdjustResult{Amount: amount}, err
	}
	return AdjustResult{Amount: amount, Boundary: boundary}, nil
}

// ResetToDefault discards edits and restores the server-suggested price.
func (s *Service) ResetToDefault(ctx context.Context, id types.ID) (AdjustResult, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return AdjustResult{}, err
	}
	amount, _, err := sess.adjustWorking(func(current int64) (int64, Boundary, error) {
		return sess.defaultAmount, BoundaryNone, nil
	})
	if err != nil {
		return AdjustResult{Amount: amount}, err
	}
	return AdjustResult{Amount: amount}, nil
}

// Submit moves the draft to the confirmation step. It always returns
// confirmation-required so the UI can show the earnings quote before
// the amount freezes.
func (s *Service) Submit(ctx context.Context, id types.ID) (bool, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return false, err
	}
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return false, ErrSessionClosed
	}
	if sess.state != StateEditing {
		sess.mu.Unlock()
		return false, ErrInvalidState
	}
	if sess.working < MinBid || sess.working > MaxBid {
		sess.mu.Unlock()
		return false, &ValidationError{Reason: "amount out of bounds"}
	}
	sess.state = StateConfirming
	sess.mu.Unlock()

	s.appendEvent(ctx, sess, StateEditing, StateConfirming)
	return true, nil
}

// CancelConfirm dismisses the confirmation dialog; the draft stays editable.
func (s *Service) CancelConfirm(ctx context.Context, id types.ID) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return ErrSessionClosed
	}
	if sess.state != StateConfirming {
		sess.mu.Unlock()
		return ErrInvalidState
	}
	sess.state = StateEditing
	sess.mu.Unlock()

	s.appendEvent(ctx, sess, StateConfirming, StateEditing)
	return nil
}

// ConfirmSubmit freezes the amount and performs the external submit call.
// On success the session enters the listening phase: an outcome
// subscription plus a local expiry timer. On a typed failure the session
// surfaces the error and returns to editing for retry.
func (s *Service) ConfirmSubmit(ctx context.Context, id types.ID) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return ErrSessionClosed
	}
	if sess.state != StateConfirming {
		sess.mu.Unlock()
		return ErrInvalidState
	}
	amount := sess.working
	sess.submitted = &amount
	sess.state = StateSubmitting
	sess.mu.Unlock()

	s.appendEvent(ctx, sess, StateConfirming, StateSubmitting)

	if err := s.rides.SubmitBid(ctx, sess.RideRequestID, amount); err != nil {
		se, ok := asSubmitError(err)
		if !ok {
			se = &SubmitError{Code: CodeUnknown, Reason: err.Error()}
		}
		sess.mu.Lock()
		sess.lastErr = se
		sess.submitted = nil
		sess.state = StateSubmissionFailed
		sess.mu.Unlock()
		s.appendEvent(ctx, sess, StateSubmitting, StateSubmissionFailed)

		if cb := sess.callbacks.OnSubmissionFailed; cb != nil {
			cb(se)
		}

		// Failure surfaced; the draft is editable again, unless a close
		// won the race while the callback ran.
		sess.mu.Lock()
		if sess.closed {
			sess.mu.Unlock()
			return se
		}
		sess.state = StateEditing
		sess.mu.Unlock()
		s.appendEvent(ctx, sess, StateSubmissionFailed, StateEditing)
		return se
	}

	// Enter listening before subscribing so an instant notification can
	// legally close the session.
	sess.mu.Lock()
	sess.state = StateListening
	sess.deadline = time.Now().Add(s.cfg.ListenTimeout)
	sess.timer = time.AfterFunc(s.cfg.ListenTimeout, func() {
		s.resolve(sess, Outcome{State: StateExpired})
	})
	sess.mu.Unlock()

	s.appendEvent(ctx, sess, StateSubmitting, StateListening)

	if s.notifier == nil {
		return nil
	}
	unsub, err := s.notifier.SubscribeOutcome(ctx, sess.RideRequestID, sess.DriverID, OutcomeHandler{
		OnAccepted: func(a Acceptance) {
			s.resolve(sess, Outcome{State: StateAccepted, Acceptance: a})
		},
		OnCancelled: func(c Cancellation) {
			s.resolve(sess, Outcome{State: StateCancelledByRider, Cancellation: c})
		},
		OnExpired: func() {
			s.resolve(sess, Outcome{State: StateExpired})
		},
	})
	if err != nil {
		// The bid is live on the platform; without a subscription the
		// session still resolves via the local timer.
		s.logger.Error("subscribe outcome failed, falling back to local expiry",
			"ride_request_id", string(sess.RideRequestID), "error", err)
		return nil
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		unsub()
		return nil
	}
	sess.unsub = unsub
	sess.mu.Unlock()
	return nil
}

// Cancel is the driver closing the bid sheet. Idempotent: repeated or
// late calls are no-ops. Not allowed while a submit is in flight; the
// in-flight call completes and its result is evaluated first.
func (s *Service) Cancel(ctx context.Context, id types.ID) error {
	sess, err := s.lookup(id)
	if err != nil {
		if err == ErrNotFound {
			// Session already closed and reaped; treat as the no-op
			// second tap on the close button.
			return nil
		}
		return err
	}
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return nil
	}
	if sess.state == StateSubmitting {
		sess.mu.Unlock()
		return ErrSubmitInFlight
	}
	sess.mu.Unlock()

	s.resolve(sess, Outcome{State: StateDeclinedByDriver})
	return nil
}

// Events returns the audit trail for a session.
func (s *Service) Events(ctx context.Context, id types.ID) ([]Event, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.EventsBySession(ctx, id)
}

func (s *Service) lookup(id types.ID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *Service) removeSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, sess.ID)
	key := sessionKey{sess.RideRequestID, sess.DriverID}
	if cur, ok := s.byKey[key]; ok && cur == sess {
		delete(s.byKey, key)
	}
}

func (s *Service) appendEvent(ctx context.Context, sess *Session, from, to State) {
	if s.store == nil {
		return
	}
	snap := sess.Snapshot()
	amount := snap.WorkingAmount
	if snap.SubmittedAmount != nil {
		amount = *snap.SubmittedAmount
	}
	err := s.store.AppendEvent(ctx, &Event{
		SessionID:     sess.ID,
		RideRequestID: sess.RideRequestID,
		DriverID:      sess.DriverID,
		FromState:     from,
		ToState:       to,
		Amount:        &amount,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		s.logger.Warn("append bid event failed",
			"session_id", string(sess.ID), "to_state", string(to), "error", err)
	}
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
