package db

import (
	"context"

	"github.com/google/uuid"
)

// used_listing_ids dedupes checkout-session listing identifiers so a
// retried or duplicate webhook delivery for session_completed does not
// double-provision a listing. Enforced by a unique constraint on listing_id.

const tryClaimUsedListingID = `INSERT INTO used_listing_ids (listing_id, tenant_id, created_at)
	VALUES ($1, $2, now())
	ON CONFLICT (listing_id) DO NOTHING`

func (q *Queries) TryClaimUsedListingID(ctx context.Context, listingID string, tenantID uuid.UUID) (bool, error) {
	tag, err := q.db.Exec(ctx, tryClaimUsedListingID, listingID, tenantID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const isListingIDUsed = `SELECT EXISTS(SELECT 1 FROM used_listing_ids WHERE listing_id = $1)`

func (q *Queries) IsListingIDUsed(ctx context.Context, listingID string) (bool, error) {
	var used bool
	err := q.db.QueryRow(ctx, isListingIDUsed, listingID).Scan(&used)
	return used, err
}
