package db

import (
	"context"

	"github.com/google/uuid"
)

const integrationColumns = `id, tenant_id, user_id, type, credentials, status, created_at, updated_at`

func scanIntegration(row interface{ Scan(dest ...any) error }) (Integration, error) {
	var i Integration
	err := row.Scan(&i.ID, &i.TenantID, &i.UserID, &i.Type, &i.Credentials, &i.Status, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getIntegration = `SELECT ` + integrationColumns + ` FROM integrations WHERE id = $1`

func (q *Queries) GetIntegration(ctx context.Context, id uuid.UUID) (Integration, error) {
	return scanIntegration(q.db.QueryRow(ctx, getIntegration, id))
}

const getIntegrationByUserAndType = `SELECT ` + integrationColumns + ` FROM integrations WHERE user_id = $1 AND type = $2`

func (q *Queries) GetIntegrationByUserAndType(ctx context.Context, userID uuid.UUID, typ string) (Integration, error) {
	return scanIntegration(q.db.QueryRow(ctx, getIntegrationByUserAndType, userID, typ))
}

type UpsertIntegrationParams struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	UserID      uuid.UUID
	Type        string
	Credentials []byte
	Status      string
}

// upsertIntegration relies on the unique (user_id, type) constraint: a user
// may only hold one credential set per PMS provider at a time.
const upsertIntegration = `INSERT INTO integrations (id, tenant_id, user_id, type, credentials, status, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6, now(), now())
	ON CONFLICT (user_id, type) DO UPDATE SET
		credentials = EXCLUDED.credentials, status = EXCLUDED.status, updated_at = now()
	RETURNING ` + integrationColumns

func (q *Queries) UpsertIntegration(ctx context.Context, arg UpsertIntegrationParams) (Integration, error) {
	return scanIntegration(q.db.QueryRow(ctx, upsertIntegration, arg.ID, arg.TenantID, arg.UserID, arg.Type, arg.Credentials, arg.Status))
}

const listIntegrationsByTenant = `SELECT ` + integrationColumns + ` FROM integrations WHERE tenant_id = $1 ORDER BY created_at`

func (q *Queries) ListIntegrationsByTenant(ctx context.Context, tenantID uuid.UUID) ([]Integration, error) {
	rows, err := q.db.Query(ctx, listIntegrationsByTenant, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Integration
	for rows.Next() {
		i, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
