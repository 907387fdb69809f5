package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const tenantColumns = `id, name, pms_sync_enabled, stripe_customer_id, stripe_subscription_id,
	stripe_parent_item_id, stripe_child_item_id, subscription_status, trial_ends_at,
	last_billed_parent_units, last_billed_child_units, default_timezone,
	access_disabled, payment_failed, created_at, updated_at`

func scanTenant(row interface{ Scan(dest ...any) error }) (Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.PmsSyncEnabled, &t.StripeCustomerID, &t.StripeSubscriptionID,
		&t.StripeParentItemID, &t.StripeChildItemID, &t.SubscriptionStatus, &t.TrialEndsAt,
		&t.LastBilledParentUnits, &t.LastBilledChildUnits, &t.DefaultTimezone,
		&t.AccessDisabled, &t.PaymentFailed, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const getTenant = `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

func (q *Queries) GetTenant(ctx context.Context, id uuid.UUID) (Tenant, error) {
	return scanTenant(q.db.QueryRow(ctx, getTenant, id))
}

const getTenantByStripeCustomerID = `SELECT ` + tenantColumns + ` FROM tenants WHERE stripe_customer_id = $1`

func (q *Queries) GetTenantByStripeCustomerID(ctx context.Context, customerID string) (Tenant, error) {
	return scanTenant(q.db.QueryRow(ctx, getTenantByStripeCustomerID, customerID))
}

const listTenants = `SELECT ` + tenantColumns + ` FROM tenants ORDER BY created_at`

func (q *Queries) ListTenants(ctx context.Context) ([]Tenant, error) {
	rows, err := q.db.Query(ctx, listTenants)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type UpdateTenantSubscriptionParams struct {
	ID                   uuid.UUID
	StripeCustomerID     pgtype.Text
	StripeSubscriptionID pgtype.Text
	StripeParentItemID   pgtype.Text
	StripeChildItemID    pgtype.Text
	SubscriptionStatus   string
	TrialEndsAt          pgtype.Timestamptz
}

const updateTenantSubscription = `UPDATE tenants SET
	stripe_customer_id = $2, stripe_subscription_id = $3, stripe_parent_item_id = $4,
	stripe_child_item_id = $5, subscription_status = $6, trial_ends_at = $7, updated_at = now()
	WHERE id = $1
	RETURNING ` + tenantColumns

func (q *Queries) UpdateTenantSubscription(ctx context.Context, arg UpdateTenantSubscriptionParams) (Tenant, error) {
	row := q.db.QueryRow(ctx, updateTenantSubscription, arg.ID, arg.StripeCustomerID, arg.StripeSubscriptionID,
		arg.StripeParentItemID, arg.StripeChildItemID, arg.SubscriptionStatus, arg.TrialEndsAt)
	return scanTenant(row)
}

const updateTenantSubscriptionStatus = `UPDATE tenants SET subscription_status = $2, updated_at = now() WHERE id = $1 RETURNING ` + tenantColumns

func (q *Queries) UpdateTenantSubscriptionStatus(ctx context.Context, id uuid.UUID, status string) (Tenant, error) {
	return scanTenant(q.db.QueryRow(ctx, updateTenantSubscriptionStatus, id, status))
}

const updateTenantBilledQuantities = `UPDATE tenants SET last_billed_parent_units = $2, last_billed_child_units = $3, updated_at = now()
	WHERE id = $1`

func (q *Queries) UpdateTenantBilledQuantities(ctx context.Context, id uuid.UUID, parentUnits, childUnits int32) error {
	_, err := q.db.Exec(ctx, updateTenantBilledQuantities, id, parentUnits, childUnits)
	return err
}

const setTenantPmsSyncEnabled = `UPDATE tenants SET pms_sync_enabled = $2, updated_at = now() WHERE id = $1`

func (q *Queries) SetTenantPmsSyncEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	_, err := q.db.Exec(ctx, setTenantPmsSyncEnabled, id, enabled)
	return err
}

const setTenantAccessDisabled = `UPDATE tenants SET access_disabled = $2, updated_at = now() WHERE id = $1`

// SetTenantAccessDisabled flips the C7 webhook handler's ban/unban flag.
func (q *Queries) SetTenantAccessDisabled(ctx context.Context, id uuid.UUID, disabled bool) error {
	_, err := q.db.Exec(ctx, setTenantAccessDisabled, id, disabled)
	return err
}

const setTenantPaymentFailed = `UPDATE tenants SET payment_failed = $2, updated_at = now() WHERE id = $1`

func (q *Queries) SetTenantPaymentFailed(ctx context.Context, id uuid.UUID, failed bool) error {
	_, err := q.db.Exec(ctx, setTenantPaymentFailed, id, failed)
	return err
}
