package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const priceOverrideColumns = `id, property_id, date, price_cents, locked, created_at, updated_at`

func scanPriceOverride(row interface{ Scan(dest ...any) error }) (PriceOverride, error) {
	var p PriceOverride
	err := row.Scan(&p.ID, &p.PropertyID, &p.Date, &p.PriceCents, &p.Locked, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const listPriceOverridesForProperty = `SELECT ` + priceOverrideColumns + `
	FROM price_overrides WHERE property_id = $1 AND date >= $2 AND date < $3 ORDER BY date`

func (q *Queries) ListPriceOverridesForProperty(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]PriceOverride, error) {
	rows, err := q.db.Query(ctx, listPriceOverridesForProperty, propertyID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PriceOverride
	for rows.Next() {
		p, err := scanPriceOverride(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type UpsertPriceOverrideParams struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	Date       time.Time
	PriceCents int32
	Locked     bool
}

// upsertPriceOverride is keyed on the (property_id, date) unique constraint:
// repeated calendar runs for the same day overwrite the price but never
// clobber a lock flag set by a human override unless the caller asks to.
const upsertPriceOverride = `INSERT INTO price_overrides (id, property_id, date, price_cents, locked, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5, now(), now())
	ON CONFLICT (property_id, date) DO UPDATE SET
		price_cents = EXCLUDED.price_cents, locked = EXCLUDED.locked, updated_at = now()
	RETURNING ` + priceOverrideColumns

func (q *Queries) UpsertPriceOverride(ctx context.Context, arg UpsertPriceOverrideParams) (PriceOverride, error) {
	return scanPriceOverride(q.db.QueryRow(ctx, upsertPriceOverride, arg.ID, arg.PropertyID, arg.Date, arg.PriceCents, arg.Locked))
}

const getPriceOverride = `SELECT ` + priceOverrideColumns + ` FROM price_overrides WHERE property_id = $1 AND date = $2`

func (q *Queries) GetPriceOverride(ctx context.Context, propertyID uuid.UUID, date time.Time) (PriceOverride, error) {
	return scanPriceOverride(q.db.QueryRow(ctx, getPriceOverride, propertyID, date))
}
