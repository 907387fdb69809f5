package db

import "context"

// webhook_events backs C7's idempotency check: a unique constraint on
// event_id means a replayed Stripe delivery never processes twice.

const tryClaimEventID = `INSERT INTO webhook_events (event_id, processed_at) VALUES ($1, now())
	ON CONFLICT (event_id) DO NOTHING`

func (q *Queries) TryClaimEventID(ctx context.Context, eventID string) (bool, error) {
	tag, err := q.db.Exec(ctx, tryClaimEventID, eventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
