package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/devco/pricingcore/internal/telemetry"
	"github.com/devco/pricingcore/pkg/domain"
)

// SubscriptionState is the billing-relevant slice of a tenant's Stripe
// subscription, independent of the db.Tenant row shape.
type SubscriptionState struct {
	CustomerID          string
	SubscriptionID       string
	ParentItemID        string
	ChildItemID          string
	Status               domain.SubscriptionStatus
	LastBilledParentUnits int
	LastBilledChildUnits  int
}

// Reconciler recomputes Stripe subscription item quantities from current
// property counts and emits a proration invoice item when usage increases
// mid-cycle.
type Reconciler struct {
	stripe   StripeClient
	prices   PriceIDs
	logger   *slog.Logger
}

func NewReconciler(stripe StripeClient, prices PriceIDs, logger *slog.Logger) *Reconciler {
	return &Reconciler{stripe: stripe, prices: prices, logger: logger}
}

// Reconcile compares the current property-derived quantities against the
// last billed quantities and, for a tenant past its trial, pushes any
// change to Stripe. For a trialing tenant, no Stripe subscription item
// changes are pushed — trial usage is tracked locally only, enforced
// instead by the LIMIT_EXCEEDED check in CheckTrialLimit.
func (r *Reconciler) Reconcile(ctx context.Context, sub SubscriptionState, current Quantities) error {
	if sub.Status == domain.SubscriptionTrialing {
		telemetry.BillingReconciliationsTotal.WithLabelValues("trial_skipped").Inc()
		return nil
	}

	if current.ParentUnits == sub.LastBilledParentUnits && current.ChildUnits == sub.LastBilledChildUnits {
		telemetry.BillingReconciliationsTotal.WithLabelValues("unchanged").Inc()
		return nil
	}

	if sub.ParentItemID != "" && current.ParentUnits != sub.LastBilledParentUnits {
		if err := r.stripe.UpdateSubscriptionItemQuantity(ctx, sub.ParentItemID, int64(current.ParentUnits)); err != nil {
			telemetry.BillingReconciliationsTotal.WithLabelValues("error").Inc()
			return domain.NewRemoteProvider("updating parent subscription item", err)
		}
	}
	if sub.ChildItemID != "" && current.ChildUnits != sub.LastBilledChildUnits {
		if err := r.stripe.UpdateSubscriptionItemQuantity(ctx, sub.ChildItemID, int64(current.ChildUnits)); err != nil {
			telemetry.BillingReconciliationsTotal.WithLabelValues("error").Inc()
			return domain.NewRemoteProvider("updating child subscription item", err)
		}
	}

	// Proration only applies on increase, and the parent and child SKUs are
	// prorated independently: a parent decrease must never net against a
	// child increase (or vice versa), so each gets its own invoice item
	// gated on its own sign rather than a single combined delta.
	if delta := proratedParentIncreaseCents(sub.LastBilledParentUnits, current.ParentUnits); delta > 0 {
		desc := fmt.Sprintf("Mid-cycle usage increase: %d parent unit(s) added", current.ParentUnits-sub.LastBilledParentUnits)
		if err := r.stripe.CreateProrationInvoiceItem(ctx, sub.CustomerID, sub.SubscriptionID, delta, desc); err != nil {
			telemetry.BillingReconciliationsTotal.WithLabelValues("error").Inc()
			return domain.NewRemoteProvider("creating parent proration invoice item", err)
		}
		telemetry.BillingProrationAmountTotal.Add(float64(delta))
	}
	if delta := proratedChildIncreaseCents(sub.LastBilledChildUnits, current.ChildUnits); delta > 0 {
		desc := fmt.Sprintf("Mid-cycle usage increase: %d child unit(s) added", current.ChildUnits-sub.LastBilledChildUnits)
		if err := r.stripe.CreateProrationInvoiceItem(ctx, sub.CustomerID, sub.SubscriptionID, delta, desc); err != nil {
			telemetry.BillingReconciliationsTotal.WithLabelValues("error").Inc()
			return domain.NewRemoteProvider("creating child proration invoice item", err)
		}
		telemetry.BillingProrationAmountTotal.Add(float64(delta))
	}

	telemetry.BillingReconciliationsTotal.WithLabelValues("ok").Inc()
	return nil
}

// proratedParentIncreaseCents returns the tiered-marginal cost added by
// moving the parent SKU from oldUnits to newUnits, or 0 if it didn't
// increase.
func proratedParentIncreaseCents(oldUnits, newUnits int) int64 {
	delta := TieredParentTotal(newUnits) - TieredParentTotal(oldUnits)
	if delta <= 0 {
		return 0
	}
	return delta
}

// proratedChildIncreaseCents returns the flat per-unit cost added by moving
// the child SKU from oldUnits to newUnits, or 0 if it didn't increase.
func proratedChildIncreaseCents(oldUnits, newUnits int) int64 {
	if newUnits <= oldUnits {
		return 0
	}
	return int64(newUnits-oldUnits) * ChildPriceCents
}

// CheckTrialLimit enforces the trial property cap: a trialing tenant may
// not exceed domain.TrialPropertyLimit active properties. currentCount is
// the active count before the attempted addition; attemptedImport is how
// many properties the in-flight operation would add.
func CheckTrialLimit(status domain.SubscriptionStatus, currentCount, attemptedImport int) error {
	if status != domain.SubscriptionTrialing {
		return nil
	}
	activePropertyCountAfterAdd := currentCount + attemptedImport
	if activePropertyCountAfterAdd > domain.TrialPropertyLimit {
		return domain.NewBusinessRuleWithFields(domain.CodeLimitExceeded,
			fmt.Sprintf("trialing tenants may not exceed %d active properties", domain.TrialPropertyLimit),
			map[string]any{
				"currentCount":    currentCount,
				"maxAllowed":      domain.TrialPropertyLimit,
				"requiresPayment": true,
				"attemptedImport": attemptedImport,
			})
	}
	return nil
}

// EndTrialEarlyAndBillNow charges current usage at once: it creates a single
// invoice item on the subscription for the tiered parent total plus the
// child total at the current quantities. It does not change the
// subscription's status or trial end, does not update the subscription item
// quantities, and does not scale the amount to a partial period.
func (r *Reconciler) EndTrialEarlyAndBillNow(ctx context.Context, sub SubscriptionState, current Quantities) error {
	amount := TieredParentTotal(current.ParentUnits) + ChildTotal(current.ChildUnits)
	if amount <= 0 {
		return nil
	}

	desc := "Trial ended early: immediate charge for current usage"
	if err := r.stripe.CreateProrationInvoiceItem(ctx, sub.CustomerID, sub.SubscriptionID, amount, desc); err != nil {
		return domain.NewRemoteProvider("billing for early trial end", err)
	}

	telemetry.BillingProrationAmountTotal.Add(float64(amount))
	r.logger.Info("ended trial early and billed immediately",
		"subscription_id", sub.SubscriptionID, "amount_usd", centsToDecimal(amount).StringFixed(2))
	return nil
}

// centsToDecimal renders a cents amount as a decimal.Decimal dollar value,
// used for human-facing logging/receipts rather than any Stripe API call
// (Stripe amounts are always sent as integer cents).
func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
