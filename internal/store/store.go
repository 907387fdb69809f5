// Package store is the C1 persistence facade: typed CRUD over the
// internal/db query layer, returning (nil, nil) on a missing row instead of
// an error so callers branch on presence rather than on pgx.ErrNoRows.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devco/pricingcore/internal/db"
)

// Store wraps a connection pool with the query layer.
type Store struct {
	pool *pgxpool.Pool
	q    *db.Queries
}

// New builds a Store bound to pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: db.New(pool)}
}

func isNotFound(err error) bool {
	return errors.Is(err, db.ErrNoRows)
}

// GetTenant returns the tenant, or nil if it doesn't exist.
func (s *Store) GetTenant(ctx context.Context, id uuid.UUID) (*db.Tenant, error) {
	t, err := s.q.GetTenant(ctx, id)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]db.Tenant, error) {
	return s.q.ListTenants(ctx)
}

func (s *Store) SetTenantPmsSyncEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	return s.q.SetTenantPmsSyncEnabled(ctx, id, enabled)
}

func (s *Store) SetTenantAccessDisabled(ctx context.Context, id uuid.UUID, disabled bool) error {
	return s.q.SetTenantAccessDisabled(ctx, id, disabled)
}

func (s *Store) SetTenantPaymentFailed(ctx context.Context, id uuid.UUID, failed bool) error {
	return s.q.SetTenantPaymentFailed(ctx, id, failed)
}

func (s *Store) UpdateTenantSubscription(ctx context.Context, arg db.UpdateTenantSubscriptionParams) (db.Tenant, error) {
	return s.q.UpdateTenantSubscription(ctx, arg)
}

func (s *Store) UpdateTenantSubscriptionStatus(ctx context.Context, id uuid.UUID, status string) (db.Tenant, error) {
	return s.q.UpdateTenantSubscriptionStatus(ctx, id, status)
}

func (s *Store) UpdateTenantBilledQuantities(ctx context.Context, id uuid.UUID, parentUnits, childUnits int32) error {
	return s.q.UpdateTenantBilledQuantities(ctx, id, parentUnits, childUnits)
}

// GetTenantByStripeCustomerID returns the tenant, or nil if no tenant is
// linked to that Stripe customer.
func (s *Store) GetTenantByStripeCustomerID(ctx context.Context, customerID string) (*db.Tenant, error) {
	t, err := s.q.GetTenantByStripeCustomerID(ctx, customerID)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetProperty returns the property, or nil if it doesn't exist.
func (s *Store) GetProperty(ctx context.Context, id uuid.UUID) (*db.Property, error) {
	p, err := s.q.GetProperty(ctx, id)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPropertiesByTenant(ctx context.Context, tenantID uuid.UUID) ([]db.Property, error) {
	return s.q.ListPropertiesByTenant(ctx, tenantID)
}

func (s *Store) ListPropertiesByGroup(ctx context.Context, groupID uuid.UUID) ([]db.Property, error) {
	return s.q.ListPropertiesByGroup(ctx, groupID)
}

func (s *Store) CountActivePropertiesByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.q.CountActivePropertiesByTenant(ctx, tenantID)
}

func (s *Store) CreateProperty(ctx context.Context, arg db.CreatePropertyParams) (db.Property, error) {
	return s.q.CreateProperty(ctx, arg)
}

func (s *Store) UpdatePropertyStatus(ctx context.Context, id uuid.UUID, status string) (db.Property, error) {
	return s.q.UpdatePropertyStatus(ctx, id, status)
}

func (s *Store) UpdatePropertyPricingRules(ctx context.Context, arg db.UpdatePropertyPricingRulesParams) (db.Property, error) {
	return s.q.UpdatePropertyPricingRules(ctx, arg)
}

// ListPMSExternalIDsForTenant returns every PMS listing id the tenant's
// properties are linked to.
func (s *Store) ListPMSExternalIDsForTenant(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	return s.q.ListPMSExternalIDsByTenant(ctx, tenantID)
}

// GetGroup returns the group, or nil if it doesn't exist.
func (s *Store) GetGroup(ctx context.Context, id uuid.UUID) (*db.Group, error) {
	g, err := s.q.GetGroup(ctx, id)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) ListGroupsByTenant(ctx context.Context, tenantID uuid.UUID) ([]db.Group, error) {
	return s.q.ListGroupsByTenant(ctx, tenantID)
}

func (s *Store) ListGroupPropertyIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	return s.q.ListGroupPropertyIDs(ctx, groupID)
}

func (s *Store) UpdatePropertyGroup(ctx context.Context, id uuid.UUID, groupID pgtype.UUID) (db.Property, error) {
	return s.q.UpdatePropertyGroup(ctx, id, groupID)
}

func (s *Store) AddGroupProperty(ctx context.Context, groupID, propertyID uuid.UUID) error {
	return s.q.AddGroupProperty(ctx, groupID, propertyID)
}

func (s *Store) RemoveGroupProperty(ctx context.Context, groupID, propertyID uuid.UUID) error {
	return s.q.RemoveGroupProperty(ctx, groupID, propertyID)
}

// UpsertPriceOverrides writes a batch of price overrides for a property in
// a single transaction, used by the calendar builder after each pricing run.
func (s *Store) UpsertPriceOverrides(ctx context.Context, overrides []db.UpsertPriceOverrideParams) ([]db.PriceOverride, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	q := s.q.WithTx(tx)
	out := make([]db.PriceOverride, 0, len(overrides))
	for _, o := range overrides {
		row, err := q.UpsertPriceOverride(ctx, o)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) ListPriceOverridesForProperty(ctx context.Context, propertyID uuid.UUID, from, to time.Time) ([]db.PriceOverride, error) {
	return s.q.ListPriceOverridesForProperty(ctx, propertyID, from, to)
}

func (s *Store) GetBookingsForTeamOverlapping(ctx context.Context, teamID uuid.UUID, from, to time.Time) ([]db.Booking, error) {
	return s.q.GetBookingsForTeamOverlapping(ctx, teamID, from, to)
}

func (s *Store) UpsertBooking(ctx context.Context, arg db.UpsertBookingParams) (db.Booking, error) {
	return s.q.UpsertBooking(ctx, arg)
}

func (s *Store) DeleteBookingByExternalID(ctx context.Context, propertyID uuid.UUID, externalID string) error {
	return s.q.DeleteBookingByExternalID(ctx, propertyID, externalID)
}

// GetIntegration returns the integration, or nil if it doesn't exist.
func (s *Store) GetIntegration(ctx context.Context, id uuid.UUID) (*db.Integration, error) {
	i, err := s.q.GetIntegration(ctx, id)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *Store) GetIntegrationByUserAndType(ctx context.Context, userID uuid.UUID, typ string) (*db.Integration, error) {
	i, err := s.q.GetIntegrationByUserAndType(ctx, userID, typ)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *Store) ListIntegrationsByTenant(ctx context.Context, tenantID uuid.UUID) ([]db.Integration, error) {
	return s.q.ListIntegrationsByTenant(ctx, tenantID)
}

func (s *Store) UpsertIntegration(ctx context.Context, arg db.UpsertIntegrationParams) (db.Integration, error) {
	return s.q.UpsertIntegration(ctx, arg)
}

func (s *Store) GetPropertyLogs(ctx context.Context, propertyID uuid.UUID, limit int32) ([]db.PropertyLog, error) {
	return s.q.GetPropertyLogs(ctx, propertyID, limit)
}

func (s *Store) GetSystemCache(ctx context.Context, key string) (*db.SystemCache, error) {
	c, err := s.q.GetSystemCache(ctx, key)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpsertSystemCache(ctx context.Context, arg db.UpsertSystemCacheParams) error {
	return s.q.UpsertSystemCache(ctx, arg)
}

func (s *Store) ClaimSystemCacheRefresh(ctx context.Context, key string, producerID string, claimUntil time.Time) (bool, error) {
	return s.q.ClaimSystemCacheRefresh(ctx, key, textOrNull(producerID), claimUntil)
}

func (s *Store) TryClaimUsedListingID(ctx context.Context, listingID string, tenantID uuid.UUID) (bool, error) {
	return s.q.TryClaimUsedListingID(ctx, listingID, tenantID)
}

func (s *Store) IsListingIDUsed(ctx context.Context, listingID string) (bool, error) {
	return s.q.IsListingIDUsed(ctx, listingID)
}

// TryClaimEventID claims a Stripe webhook event id, returning false if it
// has already been processed.
func (s *Store) TryClaimEventID(ctx context.Context, eventID string) (bool, error) {
	return s.q.TryClaimEventID(ctx, eventID)
}

func (s *Store) ListSchedulerStates(ctx context.Context) ([]db.SchedulerState, error) {
	return s.q.ListSchedulerStates(ctx)
}

func (s *Store) RecordSchedulerOutcome(ctx context.Context, tenantID uuid.UUID, success bool, at time.Time) error {
	return s.q.RecordSchedulerOutcome(ctx, tenantID, success, at)
}
