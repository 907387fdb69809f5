package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const bookingColumns = `id, property_id, external_id, check_in, check_out, status, created_at, updated_at`

func scanBooking(row interface{ Scan(dest ...any) error }) (Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.PropertyID, &b.ExternalID, &b.CheckIn, &b.CheckOut, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// getBookingsForTeamOverlapping returns every booking for properties owned
// by teamID whose stay overlaps [from, to), excluding cancelled bookings,
// ordered by check-in.
const getBookingsForTeamOverlapping = `SELECT b.id, b.property_id, b.external_id, b.check_in, b.check_out, b.status, b.created_at, b.updated_at
	FROM bookings b JOIN properties p ON p.id = b.property_id
	WHERE p.team_id = $1 AND b.status != 'cancelled' AND b.check_in < $3 AND b.check_out > $2
	ORDER BY b.check_in`

func (q *Queries) GetBookingsForTeamOverlapping(ctx context.Context, teamID uuid.UUID, from, to time.Time) ([]Booking, error) {
	rows, err := q.db.Query(ctx, getBookingsForTeamOverlapping, teamID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type UpsertBookingParams struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	ExternalID string
	CheckIn    time.Time
	CheckOut   time.Time
	Status     string
}

const upsertBooking = `INSERT INTO bookings (id, property_id, external_id, check_in, check_out, status, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6, now(), now())
	ON CONFLICT (property_id, external_id) DO UPDATE SET
		check_in = EXCLUDED.check_in, check_out = EXCLUDED.check_out, status = EXCLUDED.status, updated_at = now()
	RETURNING ` + bookingColumns

func (q *Queries) UpsertBooking(ctx context.Context, arg UpsertBookingParams) (Booking, error) {
	return scanBooking(q.db.QueryRow(ctx, upsertBooking, arg.ID, arg.PropertyID, arg.ExternalID, arg.CheckIn, arg.CheckOut, arg.Status))
}

const deleteBookingByExternalID = `DELETE FROM bookings WHERE property_id = $1 AND external_id = $2`

func (q *Queries) DeleteBookingByExternalID(ctx context.Context, propertyID uuid.UUID, externalID string) error {
	_, err := q.db.Exec(ctx, deleteBookingByExternalID, propertyID, externalID)
	return err
}
