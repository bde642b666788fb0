// Append-only audit log for bid session transitions, backed by PostgreSQL.
// Sessions themselves are in-memory only; the log exists for support and
// earnings history, never for recovery.
package bid

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"drover/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bid_session_events (
			session_id, ride_request_id, driver_id, from_state, to_state, amount_cents, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(e.SessionID),
		string(e.RideRequestID),
		string(e.DriverID),
		string(e.FromState),
		string(e.ToState),
		e.Amount,
		e.CreatedAt,
	)
	return err
}

func (s *Store) EventsBySession(ctx context.Context, sessionID types.ID) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, ride_request_id, driver_id, from_state, to_state, amount_cents, created_at
		FROM bid_session_events
		WHERE session_id = $1
		ORDER BY id`, string(sessionID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID, &e.SessionID, &e.RideRequestID, &e.DriverID,
			&e.FromState, &e.ToState, &e.Amount, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
