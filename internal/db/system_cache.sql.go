package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const getSystemCache = `SELECT key, value, producer_id, refreshed_at, expires_at FROM system_cache WHERE key = $1`

func (q *Queries) GetSystemCache(ctx context.Context, key string) (SystemCache, error) {
	var c SystemCache
	err := q.db.QueryRow(ctx, getSystemCache, key).Scan(&c.Key, &c.Value, &c.ProducerID, &c.RefreshedAt, &c.ExpiresAt)
	return c, err
}

type UpsertSystemCacheParams struct {
	Key        string
	Value      []byte
	ProducerID pgtype.Text
	ExpiresAt  time.Time
}

const upsertSystemCache = `INSERT INTO system_cache (key, value, producer_id, refreshed_at, expires_at)
	VALUES ($1,$2,$3, now(), $4)
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value, producer_id = EXCLUDED.producer_id,
		refreshed_at = now(), expires_at = EXCLUDED.expires_at`

func (q *Queries) UpsertSystemCache(ctx context.Context, arg UpsertSystemCacheParams) error {
	_, err := q.db.Exec(ctx, upsertSystemCache, arg.Key, arg.Value, arg.ProducerID, arg.ExpiresAt)
	return err
}

// claimSystemCacheRefresh lets exactly one producer win a stale-cache
// refresh race: the UPDATE only applies (and returns a row) when the row
// is still expired and no other producer has already claimed it.
const claimSystemCacheRefresh = `UPDATE system_cache SET producer_id = $2, expires_at = $3
	WHERE key = $1 AND expires_at <= now()
	RETURNING key`

func (q *Queries) ClaimSystemCacheRefresh(ctx context.Context, key string, producerID pgtype.Text, claimUntil time.Time) (bool, error) {
	var k string
	err := q.db.QueryRow(ctx, claimSystemCacheRefresh, key, producerID, claimUntil).Scan(&k)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
