// Typed errors crossing the bid package boundary.
package bid

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("bid session not found")
	ErrSessionActive  = errors.New("bid session already active for this ride request")
	ErrSessionClosed  = errors.New("bid session already closed")
	ErrInvalidState   = errors.New("operation not allowed in current session state")
	ErrSubmitInFlight = errors.New("submit in flight, close is deferred until it resolves")
	ErrBadRequest     = errors.New("bad request")
)

// ValidationError rejects an invalid draft amount. The previous working
// amount is always retained when one of these is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid bid amount: " + e.Reason
}

type SubmitCode string

const (
	CodeCooldown SubmitCode = "cooldown"
	CodeLocked   SubmitCode = "locked"
	CodeNetwork  SubmitCode = "network"
	CodeUnknown  SubmitCode = "unknown"
)

// SubmitError is the typed failure of the external submit call. It is
// fully retryable: the session returns to editing after it is surfaced.
type SubmitError struct {
	Code         SubmitCode
	RetrySeconds int
	Reason       string
}

func asSubmitError(err error) (*SubmitError, bool) {
	var se *SubmitError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func (e *SubmitError) Error() string {
	switch e.Code {
	case CodeCooldown:
		return fmt.Sprintf("bid rejected: cooldown, retry in %ds", e.RetrySeconds)
	case CodeLocked:
		return "bid rejected: ride request locked: " + e.Reason
	case CodeNetwork:
		return "bid submit failed: network: " + e.Reason
	default:
		return "bid submit failed: " + e.Reason
	}
}
