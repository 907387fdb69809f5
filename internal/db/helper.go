package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNoRows re-exports pgx.ErrNoRows so callers outside this package don't
// need to import pgx directly just to check for a missing row.
var ErrNoRows = pgx.ErrNoRows

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
