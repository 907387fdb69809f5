package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type CreatePropertyLogParams struct {
	ID         uuid.UUID
	PropertyID uuid.UUID
	UserID     pgtype.UUID
	UserEmail  pgtype.Text
	Action     string
	Changes    []byte
	Timestamp  time.Time
}

const createPropertyLog = `INSERT INTO property_logs (id, property_id, user_id, user_email, action, changes, timestamp)
	VALUES ($1,$2,$3,$4,$5,$6,$7)`

func (q *Queries) CreatePropertyLog(ctx context.Context, arg CreatePropertyLogParams) error {
	_, err := q.db.Exec(ctx, createPropertyLog, arg.ID, arg.PropertyID, arg.UserID, arg.UserEmail, arg.Action, arg.Changes, arg.Timestamp)
	return err
}

const getPropertyLogs = `SELECT id, property_id, user_id, user_email, action, changes, timestamp
	FROM property_logs WHERE property_id = $1 ORDER BY timestamp DESC LIMIT $2`

func (q *Queries) GetPropertyLogs(ctx context.Context, propertyID uuid.UUID, limit int32) ([]PropertyLog, error) {
	rows, err := q.db.Query(ctx, getPropertyLogs, propertyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PropertyLog
	for rows.Next() {
		var l PropertyLog
		if err := rows.Scan(&l.ID, &l.PropertyID, &l.UserID, &l.UserEmail, &l.Action, &l.Changes, &l.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
