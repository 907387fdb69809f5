package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/devco/pricingcore/internal/store"
	"github.com/devco/pricingcore/pkg/billing"
	"github.com/devco/pricingcore/pkg/domain"
)

// BillingTrigger implements orchestration.BillingTrigger: a property
// mutation that changes billable quantities marks the tenant dirty, which
// here runs reconciliation inline rather than queuing it, since a single
// tenant's reconciliation is a handful of Stripe calls at most.
type BillingTrigger struct {
	store      *store.Store
	reconciler *billing.Reconciler
	logger     *slog.Logger
}

func NewBillingTrigger(st *store.Store, reconciler *billing.Reconciler, logger *slog.Logger) *BillingTrigger {
	return &BillingTrigger{store: st, reconciler: reconciler, logger: logger}
}

func (b *BillingTrigger) MarkDirty(ctx context.Context, tenantID uuid.UUID) {
	if err := b.reconcileTenant(ctx, tenantID); err != nil {
		b.logger.Error("reconciling tenant billing after property mutation", "error", err, "tenant_id", tenantID)
	}
}

// ReconcileTenant recomputes a tenant's billable quantities from its
// current properties/groups and pushes any change to Stripe. Exported so
// the C6 scheduler and C7 webhook paths can trigger the same reconciliation
// the orchestration glue does.
func (b *BillingTrigger) ReconcileTenant(ctx context.Context, tenantID uuid.UUID) error {
	return b.reconcileTenant(ctx, tenantID)
}

func (b *BillingTrigger) reconcileTenant(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := b.store.GetTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return nil
	}

	quantities, err := b.computeQuantities(ctx, tenantID)
	if err != nil {
		return err
	}

	sub := billing.SubscriptionState{
		Status:                domain.SubscriptionStatus(tenant.SubscriptionStatus),
		LastBilledParentUnits: int(tenant.LastBilledParentUnits),
		LastBilledChildUnits:  int(tenant.LastBilledChildUnits),
	}
	if tenant.StripeCustomerID.Valid {
		sub.CustomerID = tenant.StripeCustomerID.String
	}
	if tenant.StripeSubscriptionID.Valid {
		sub.SubscriptionID = tenant.StripeSubscriptionID.String
	}
	if tenant.StripeParentItemID.Valid {
		sub.ParentItemID = tenant.StripeParentItemID.String
	}
	if tenant.StripeChildItemID.Valid {
		sub.ChildItemID = tenant.StripeChildItemID.String
	}

	if err := b.reconciler.Reconcile(ctx, sub, quantities); err != nil {
		return err
	}

	return b.store.UpdateTenantBilledQuantities(ctx, tenantID, int32(quantities.ParentUnits), int32(quantities.ChildUnits))
}

func (b *BillingTrigger) computeQuantities(ctx context.Context, tenantID uuid.UUID) (billing.Quantities, error) {
	properties, err := b.store.ListPropertiesByTenant(ctx, tenantID)
	if err != nil {
		return billing.Quantities{}, err
	}

	groups, err := b.store.ListGroupsByTenant(ctx, tenantID)
	if err != nil {
		return billing.Quantities{}, err
	}

	var standalone []uuid.UUID
	for _, p := range properties {
		if p.Status != "active" {
			continue
		}
		if !p.GroupID.Valid {
			standalone = append(standalone, p.ID)
		}
	}

	memberships := make([]billing.GroupMembership, 0, len(groups))
	for _, g := range groups {
		propertyIDs, err := b.store.ListGroupPropertyIDs(ctx, g.ID)
		if err != nil {
			return billing.Quantities{}, err
		}
		membership := billing.GroupMembership{GroupID: g.ID, PropertyIDs: propertyIDs}
		if g.MainPropertyID.Valid {
			membership.MainPropertyID = uuidFromPg(g.MainPropertyID)
		}
		memberships = append(memberships, membership)
	}

	return billing.ComputeQuantities(standalone, memberships), nil
}
