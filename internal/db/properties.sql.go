package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const propertyColumns = `id, tenant_id, team_id, group_id, name, status, capacity, surface_area,
	property_type, latitude, longitude, base_price_cents, integration_id, pms_external_id,
	strategy, floor_price_cents, ceiling_price_cents, min_stay, max_stay,
	weekly_discount_percent, monthly_discount_percent, weekend_markup_percent,
	created_at, updated_at`

func scanProperty(row interface {
	Scan(dest ...any) error
}) (Property, error) {
	var p Property
	err := row.Scan(&p.ID, &p.TenantID, &p.TeamID, &p.GroupID, &p.Name, &p.Status, &p.Capacity, &p.SurfaceArea,
		&p.PropertyType, &p.Latitude, &p.Longitude, &p.BasePriceCents, &p.IntegrationID, &p.PmsExternalID,
		&p.Strategy, &p.FloorPriceCents, &p.CeilingPriceCents, &p.MinStay, &p.MaxStay,
		&p.WeeklyDiscountPercent, &p.MonthlyDiscountPercent, &p.WeekendMarkupPercent,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const getProperty = `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`

func (q *Queries) GetProperty(ctx context.Context, id uuid.UUID) (Property, error) {
	return scanProperty(q.db.QueryRow(ctx, getProperty, id))
}

const listPropertiesByTenant = `SELECT ` + propertyColumns + ` FROM properties WHERE tenant_id = $1 ORDER BY created_at`

func (q *Queries) ListPropertiesByTenant(ctx context.Context, tenantID uuid.UUID) ([]Property, error) {
	rows, err := q.db.Query(ctx, listPropertiesByTenant, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const listPropertiesByGroup = `SELECT ` + propertyColumns + ` FROM properties WHERE group_id = $1 ORDER BY created_at`

func (q *Queries) ListPropertiesByGroup(ctx context.Context, groupID uuid.UUID) ([]Property, error) {
	rows, err := q.db.Query(ctx, listPropertiesByGroup, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const countActivePropertiesByTenant = `SELECT count(*) FROM properties WHERE tenant_id = $1 AND status = 'active'`

func (q *Queries) CountActivePropertiesByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countActivePropertiesByTenant, tenantID).Scan(&n)
	return n, err
}

const listPMSExternalIDsByTenant = `SELECT pms_external_id FROM properties WHERE tenant_id = $1 AND pms_external_id IS NOT NULL`

// ListPMSExternalIDsByTenant returns every PMS listing id currently owned
// by the tenant, used by the C7 webhook handler to register each one into
// UsedListingId on session_completed.
func (q *Queries) ListPMSExternalIDsByTenant(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	rows, err := q.db.Query(ctx, listPMSExternalIDsByTenant, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type CreatePropertyParams struct {
	ID                     uuid.UUID
	TenantID               uuid.UUID
	TeamID                 uuid.UUID
	GroupID                pgtype.UUID
	Name                   string
	Status                 string
	Capacity               int32
	SurfaceArea            pgtype.Float8
	PropertyType           string
	Latitude               float64
	Longitude              float64
	BasePriceCents         int32
	IntegrationID          pgtype.UUID
	PmsExternalID          pgtype.Text
	Strategy               string
	FloorPriceCents        int32
	CeilingPriceCents      pgtype.Int4
	MinStay                int32
	MaxStay                pgtype.Int4
	WeeklyDiscountPercent  pgtype.Float8
	MonthlyDiscountPercent pgtype.Float8
	WeekendMarkupPercent   pgtype.Float8
}

const createProperty = `INSERT INTO properties
	(id, tenant_id, team_id, group_id, name, status, capacity, surface_area, property_type,
	 latitude, longitude, base_price_cents, integration_id, pms_external_id,
	 strategy, floor_price_cents, ceiling_price_cents, min_stay, max_stay,
	 weekly_discount_percent, monthly_discount_percent, weekend_markup_percent,
	 created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22, now(), now())
	RETURNING ` + propertyColumns

func (q *Queries) CreateProperty(ctx context.Context, arg CreatePropertyParams) (Property, error) {
	row := q.db.QueryRow(ctx, createProperty, arg.ID, arg.TenantID, arg.TeamID, arg.GroupID, arg.Name, arg.Status,
		arg.Capacity, arg.SurfaceArea, arg.PropertyType, arg.Latitude, arg.Longitude, arg.BasePriceCents,
		arg.IntegrationID, arg.PmsExternalID, arg.Strategy, arg.FloorPriceCents, arg.CeilingPriceCents, arg.MinStay, arg.MaxStay,
		arg.WeeklyDiscountPercent, arg.MonthlyDiscountPercent, arg.WeekendMarkupPercent)
	return scanProperty(row)
}

const updatePropertyStatus = `UPDATE properties SET status = $2, updated_at = now() WHERE id = $1 RETURNING ` + propertyColumns

func (q *Queries) UpdatePropertyStatus(ctx context.Context, id uuid.UUID, status string) (Property, error) {
	return scanProperty(q.db.QueryRow(ctx, updatePropertyStatus, id, status))
}

const updatePropertyGroup = `UPDATE properties SET group_id = $2, updated_at = now() WHERE id = $1 RETURNING ` + propertyColumns

func (q *Queries) UpdatePropertyGroup(ctx context.Context, id uuid.UUID, groupID pgtype.UUID) (Property, error) {
	return scanProperty(q.db.QueryRow(ctx, updatePropertyGroup, id, groupID))
}

type UpdatePropertyPricingRulesParams struct {
	ID                     uuid.UUID
	Strategy               string
	FloorPriceCents        int32
	CeilingPriceCents      pgtype.Int4
	MinStay                int32
	MaxStay                pgtype.Int4
	WeeklyDiscountPercent  pgtype.Float8
	MonthlyDiscountPercent pgtype.Float8
	WeekendMarkupPercent   pgtype.Float8
}

const updatePropertyPricingRules = `UPDATE properties SET
	strategy = $2, floor_price_cents = $3, ceiling_price_cents = $4, min_stay = $5, max_stay = $6,
	weekly_discount_percent = $7, monthly_discount_percent = $8, weekend_markup_percent = $9,
	updated_at = now()
	WHERE id = $1
	RETURNING ` + propertyColumns

// UpdatePropertyPricingRules persists a property's strategy/floor/ceiling/
// stay/discount rules, the "rules change" mutation of the PMS sync contract.
func (q *Queries) UpdatePropertyPricingRules(ctx context.Context, arg UpdatePropertyPricingRulesParams) (Property, error) {
	row := q.db.QueryRow(ctx, updatePropertyPricingRules, arg.ID, arg.Strategy, arg.FloorPriceCents, arg.CeilingPriceCents,
		arg.MinStay, arg.MaxStay, arg.WeeklyDiscountPercent, arg.MonthlyDiscountPercent, arg.WeekendMarkupPercent)
	return scanProperty(row)
}
