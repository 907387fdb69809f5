package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const groupColumns = `id, tenant_id, team_id, name, main_property_id, sync_prices, created_at, updated_at`

func scanGroup(row interface{ Scan(dest ...any) error }) (Group, error) {
	var g Group
	err := row.Scan(&g.ID, &g.TenantID, &g.TeamID, &g.Name, &g.MainPropertyID, &g.SyncPrices, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

const getGroup = `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`

func (q *Queries) GetGroup(ctx context.Context, id uuid.UUID) (Group, error) {
	return scanGroup(q.db.QueryRow(ctx, getGroup, id))
}

const listGroupsByTenant = `SELECT ` + groupColumns + ` FROM groups WHERE tenant_id = $1 ORDER BY created_at`

func (q *Queries) ListGroupsByTenant(ctx context.Context, tenantID uuid.UUID) ([]Group, error) {
	rows, err := q.db.Query(ctx, listGroupsByTenant, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

type CreateGroupParams struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	TeamID         uuid.UUID
	Name           string
	MainPropertyID pgtype.UUID
	SyncPrices     bool
}

const createGroup = `INSERT INTO groups (id, tenant_id, team_id, name, main_property_id, sync_prices, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6, now(), now()) RETURNING ` + groupColumns

func (q *Queries) CreateGroup(ctx context.Context, arg CreateGroupParams) (Group, error) {
	return scanGroup(q.db.QueryRow(ctx, createGroup, arg.ID, arg.TenantID, arg.TeamID, arg.Name, arg.MainPropertyID, arg.SyncPrices))
}

const setGroupMainProperty = `UPDATE groups SET main_property_id = $2, updated_at = now() WHERE id = $1 RETURNING ` + groupColumns

func (q *Queries) SetGroupMainProperty(ctx context.Context, id uuid.UUID, mainPropertyID pgtype.UUID) (Group, error) {
	return scanGroup(q.db.QueryRow(ctx, setGroupMainProperty, id, mainPropertyID))
}

// group_properties join table: explicit membership, independent of the
// property.group_id denormalization used for fast lookups.

const addGroupProperty = `INSERT INTO group_properties (group_id, property_id) VALUES ($1, $2)
	ON CONFLICT DO NOTHING`

func (q *Queries) AddGroupProperty(ctx context.Context, groupID, propertyID uuid.UUID) error {
	_, err := q.db.Exec(ctx, addGroupProperty, groupID, propertyID)
	return err
}

const removeGroupProperty = `DELETE FROM group_properties WHERE group_id = $1 AND property_id = $2`

func (q *Queries) RemoveGroupProperty(ctx context.Context, groupID, propertyID uuid.UUID) error {
	_, err := q.db.Exec(ctx, removeGroupProperty, groupID, propertyID)
	return err
}

const listGroupPropertyIDs = `SELECT property_id FROM group_properties WHERE group_id = $1`

func (q *Queries) ListGroupPropertyIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, listGroupPropertyIDs, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
