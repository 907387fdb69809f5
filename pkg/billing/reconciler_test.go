package billing

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stripe/stripe-go/v82"

	"github.com/devco/pricingcore/pkg/domain"
)

type fakeStripeClient struct {
	quantityUpdates map[string]int64
	prorationsCents []int64
}

func newFakeStripeClient() *fakeStripeClient {
	return &fakeStripeClient{quantityUpdates: make(map[string]int64)}
}

func (f *fakeStripeClient) UpdateSubscriptionItemQuantity(ctx context.Context, itemID string, quantity int64) error {
	f.quantityUpdates[itemID] = quantity
	return nil
}

func (f *fakeStripeClient) CreateProrationInvoiceItem(ctx context.Context, customerID, subscriptionID string, amountCents int64, description string) error {
	f.prorationsCents = append(f.prorationsCents, amountCents)
	return nil
}

func (f *fakeStripeClient) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	return &stripe.Subscription{ID: subscriptionID}, nil
}

func TestReconcileSkipsStripeForTrialingTenant(t *testing.T) {
	fake := newFakeStripeClient()
	r := NewReconciler(fake, PriceIDs{Parent: "price_parent", Child: "price_child"}, slog.Default())

	sub := SubscriptionState{Status: domain.SubscriptionTrialing, ParentItemID: "si_1", LastBilledParentUnits: 1}
	err := r.Reconcile(context.Background(), sub, Quantities{ParentUnits: 5})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if len(fake.quantityUpdates) != 0 {
		t.Fatalf("expected no Stripe calls for a trialing tenant, got %v", fake.quantityUpdates)
	}
}

func TestReconcileUpdatesQuantitiesAndProratesOnIncrease(t *testing.T) {
	fake := newFakeStripeClient()
	r := NewReconciler(fake, PriceIDs{Parent: "price_parent", Child: "price_child"}, slog.Default())

	sub := SubscriptionState{
		Status:                domain.SubscriptionActive,
		CustomerID:            "cus_1",
		SubscriptionID:        "sub_1",
		ParentItemID:          "si_parent",
		ChildItemID:           "si_child",
		LastBilledParentUnits: 1,
		LastBilledChildUnits:  0,
	}

	err := r.Reconcile(context.Background(), sub, Quantities{ParentUnits: 2, ChildUnits: 0})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}

	if fake.quantityUpdates["si_parent"] != 2 {
		t.Errorf("si_parent quantity = %d, want 2", fake.quantityUpdates["si_parent"])
	}
	if len(fake.prorationsCents) != 1 {
		t.Fatalf("expected exactly one proration item, got %d", len(fake.prorationsCents))
	}
}

func TestReconcileSkipsProrationOnDowngrade(t *testing.T) {
	fake := newFakeStripeClient()
	r := NewReconciler(fake, PriceIDs{}, slog.Default())

	sub := SubscriptionState{
		Status:                domain.SubscriptionActive,
		ParentItemID:          "si_parent",
		LastBilledParentUnits: 5,
	}

	err := r.Reconcile(context.Background(), sub, Quantities{ParentUnits: 2})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if len(fake.prorationsCents) != 0 {
		t.Fatalf("expected no proration on downgrade, got %v", fake.prorationsCents)
	}
}

func TestReconcileEmitsTwoIndependentItemsWhenBothIncrease(t *testing.T) {
	fake := newFakeStripeClient()
	r := NewReconciler(fake, PriceIDs{}, slog.Default())

	// 5 -> 6 parent units crosses into the 899/unit tier; 0 -> 1 child unit
	// is a flat 399. These must land as two separate invoice items, not one
	// netted 1298 item.
	sub := SubscriptionState{
		Status:                domain.SubscriptionActive,
		ParentItemID:          "si_parent",
		ChildItemID:           "si_child",
		LastBilledParentUnits: 5,
		LastBilledChildUnits:  0,
	}

	err := r.Reconcile(context.Background(), sub, Quantities{ParentUnits: 6, ChildUnits: 1})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if len(fake.prorationsCents) != 2 {
		t.Fatalf("expected 2 proration items, got %d: %v", len(fake.prorationsCents), fake.prorationsCents)
	}
	if fake.prorationsCents[0] != 899 || fake.prorationsCents[1] != 399 {
		t.Fatalf("expected proration items [899, 399], got %v", fake.prorationsCents)
	}
}

func TestReconcileDoesNotNetParentDecreaseAgainstChildIncrease(t *testing.T) {
	fake := newFakeStripeClient()
	r := NewReconciler(fake, PriceIDs{}, slog.Default())

	sub := SubscriptionState{
		Status:                domain.SubscriptionActive,
		ParentItemID:          "si_parent",
		ChildItemID:           "si_child",
		LastBilledParentUnits: 6,
		LastBilledChildUnits:  0,
	}

	// Parent drops 6 -> 5 (no proration, absorbed at next cycle); child
	// rises 0 -> 1 (399, billed immediately). A combined-delta calculation
	// would see a net decrease and wrongly bill nothing.
	err := r.Reconcile(context.Background(), sub, Quantities{ParentUnits: 5, ChildUnits: 1})
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	if len(fake.prorationsCents) != 1 || fake.prorationsCents[0] != 399 {
		t.Fatalf("expected a single 399 child proration, got %v", fake.prorationsCents)
	}
}

func TestCheckTrialLimit(t *testing.T) {
	if err := CheckTrialLimit(domain.SubscriptionActive, 50, 1); err != nil {
		t.Fatalf("non-trialing tenant should never hit the limit, got %v", err)
	}
	if err := CheckTrialLimit(domain.SubscriptionTrialing, domain.TrialPropertyLimit-1, 1); err != nil {
		t.Fatalf("landing exactly at the limit should be allowed, got %v", err)
	}
	err := CheckTrialLimit(domain.SubscriptionTrialing, 9, 3)
	if err == nil {
		t.Fatal("expected LIMIT_EXCEEDED error past the trial cap")
	}
	var derr *domain.Error
	if ok := asDomainError(err, &derr); !ok || derr.Code != domain.CodeLimitExceeded {
		t.Fatalf("expected domain.CodeLimitExceeded, got %v", err)
	}
	if derr.Fields["currentCount"] != 9 || derr.Fields["attemptedImport"] != 3 || derr.Fields["maxAllowed"] != domain.TrialPropertyLimit {
		t.Fatalf("expected structured Fields on LIMIT_EXCEEDED, got %v", derr.Fields)
	}
}

func asDomainError(err error, target **domain.Error) bool {
	de, ok := err.(*domain.Error)
	if !ok {
		return false
	}
	*target = de
	return true
}
