package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/devco/pricingcore/internal/db"
	"github.com/devco/pricingcore/internal/ops"
	"github.com/devco/pricingcore/internal/store"
	"github.com/devco/pricingcore/pkg/domain"
)

// WebhookStoreAdapter implements webhook.Store over the store and an
// optional ops notifier for payment-failure alerting.
type WebhookStoreAdapter struct {
	store    *store.Store
	notifier *ops.Notifier
	logger   *slog.Logger
}

func NewWebhookStoreAdapter(st *store.Store, notifier *ops.Notifier, logger *slog.Logger) *WebhookStoreAdapter {
	return &WebhookStoreAdapter{store: st, notifier: notifier, logger: logger}
}

func (a *WebhookStoreAdapter) TryClaimEventID(ctx context.Context, eventID string) (bool, error) {
	return a.store.TryClaimEventID(ctx, eventID)
}

func (a *WebhookStoreAdapter) TryClaimUsedListingID(ctx context.Context, listingID string, tenantID string) (bool, error) {
	id, err := uuid.Parse(tenantID)
	if err != nil {
		return false, fmt.Errorf("parsing tenant id %q: %w", tenantID, err)
	}
	return a.store.TryClaimUsedListingID(ctx, listingID, id)
}

// RecordCheckoutCompleted persists the tenant's new billing identity,
// clears access_disabled, and enables PMS sync — the session_completed
// effect.
func (a *WebhookStoreAdapter) RecordCheckoutCompleted(ctx context.Context, tenantID, customerID, subscriptionID, status string) error {
	id, err := uuid.Parse(tenantID)
	if err != nil {
		return fmt.Errorf("parsing tenant id %q: %w", tenantID, err)
	}
	tenant, err := a.store.GetTenant(ctx, id)
	if err != nil {
		return fmt.Errorf("loading tenant: %w", err)
	}
	if tenant == nil {
		return fmt.Errorf("tenant %s not found", tenantID)
	}

	params := subscriptionUpdateParams(*tenant, subscriptionID, status)
	params.StripeCustomerID = textOrNull(customerID)
	if _, err := a.store.UpdateTenantSubscription(ctx, params); err != nil {
		return fmt.Errorf("recording checkout subscription: %w", err)
	}
	if err := a.store.SetTenantAccessDisabled(ctx, tenant.ID, false); err != nil {
		return fmt.Errorf("clearing access_disabled: %w", err)
	}
	if err := a.store.SetTenantPmsSyncEnabled(ctx, tenant.ID, true); err != nil {
		return fmt.Errorf("enabling pms sync: %w", err)
	}
	return nil
}

// ListPMSListingIDsForTenant returns every PMS listing id the tenant's
// properties are currently linked to.
func (a *WebhookStoreAdapter) ListPMSListingIDsForTenant(ctx context.Context, tenantID string) ([]string, error) {
	if tenantID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(tenantID)
	if err != nil {
		return nil, fmt.Errorf("parsing tenant id %q: %w", tenantID, err)
	}
	return a.store.ListPMSExternalIDsForTenant(ctx, id)
}

// RecordPaymentFailed applies the trial-aware payment_failed effect: a
// trialing tenant only gets flagged, since trial access is never revoked
// on a failed charge; any other tenant is locked out and its PMS sync
// disabled.
func (a *WebhookStoreAdapter) RecordPaymentFailed(ctx context.Context, customerID string) error {
	tenant, err := a.store.GetTenantByStripeCustomerID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("looking up tenant by stripe customer id: %w", err)
	}
	if tenant == nil {
		a.logger.Warn("payment failure for unknown stripe customer", "customer_id", customerID)
		return nil
	}

	if tenant.SubscriptionStatus == string(domain.SubscriptionTrialing) {
		return a.store.SetTenantPaymentFailed(ctx, tenant.ID, true)
	}

	if _, err := a.store.UpdateTenantSubscriptionStatus(ctx, tenant.ID, string(domain.SubscriptionPastDue)); err != nil {
		return fmt.Errorf("marking tenant past_due: %w", err)
	}
	if err := a.store.SetTenantAccessDisabled(ctx, tenant.ID, true); err != nil {
		return fmt.Errorf("disabling access: %w", err)
	}
	if err := a.store.SetTenantPmsSyncEnabled(ctx, tenant.ID, false); err != nil {
		return fmt.Errorf("disabling pms sync: %w", err)
	}
	if a.notifier != nil {
		a.notifier.Alert(ctx, "billing", fmt.Sprintf("payment failed for tenant %s, access disabled", tenant.ID))
	}
	return nil
}

// RecordPaymentSucceeded reactivates the tenant and restores access — the
// payment_succeeded effect.
func (a *WebhookStoreAdapter) RecordPaymentSucceeded(ctx context.Context, customerID string) error {
	tenant, err := a.store.GetTenantByStripeCustomerID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("looking up tenant by stripe customer id: %w", err)
	}
	if tenant == nil {
		a.logger.Warn("payment success for unknown stripe customer", "customer_id", customerID)
		return nil
	}

	if _, err := a.store.UpdateTenantSubscriptionStatus(ctx, tenant.ID, string(domain.SubscriptionActive)); err != nil {
		return fmt.Errorf("marking tenant active: %w", err)
	}
	return a.store.SetTenantAccessDisabled(ctx, tenant.ID, false)
}

func (a *WebhookStoreAdapter) RecordSubscriptionUpdate(ctx context.Context, customerID, subscriptionID, status string) error {
	tenant, err := a.store.GetTenantByStripeCustomerID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("looking up tenant by stripe customer id: %w", err)
	}
	if tenant == nil {
		a.logger.Warn("subscription update for unknown stripe customer", "customer_id", customerID)
		return nil
	}

	_, err = a.store.UpdateTenantSubscription(ctx, subscriptionUpdateParams(*tenant, subscriptionID, status))
	return err
}

// RecordSubscriptionDeleted cancels the tenant and disables access — the
// subscription_deleted effect.
func (a *WebhookStoreAdapter) RecordSubscriptionDeleted(ctx context.Context, customerID, subscriptionID string) error {
	tenant, err := a.store.GetTenantByStripeCustomerID(ctx, customerID)
	if err != nil {
		return fmt.Errorf("looking up tenant by stripe customer id: %w", err)
	}
	if tenant == nil {
		a.logger.Warn("subscription deletion for unknown stripe customer", "customer_id", customerID)
		return nil
	}

	if _, err := a.store.UpdateTenantSubscriptionStatus(ctx, tenant.ID, string(domain.SubscriptionCanceled)); err != nil {
		return fmt.Errorf("marking tenant canceled: %w", err)
	}
	return a.store.SetTenantAccessDisabled(ctx, tenant.ID, true)
}

func subscriptionUpdateParams(tenant db.Tenant, subscriptionID, status string) db.UpdateTenantSubscriptionParams {
	return db.UpdateTenantSubscriptionParams{
		ID:                   tenant.ID,
		StripeCustomerID:     tenant.StripeCustomerID,
		StripeSubscriptionID: textOrNull(subscriptionID),
		StripeParentItemID:   tenant.StripeParentItemID,
		StripeChildItemID:    tenant.StripeChildItemID,
		SubscriptionStatus:   status,
		TrialEndsAt:          tenant.TrialEndsAt,
	}
}
