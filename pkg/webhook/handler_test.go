package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stripe/stripe-go/v82"
)

type fakeStore struct {
	claimedEvents   map[string]bool
	claimedListings map[string]bool
	pmsListingIDs   map[string][]string

	checkoutCalls      int
	paymentFailedCalls int
	paymentSuccessCalls int
	subscriptionCalls  int
	deletedCalls       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		claimedEvents:   make(map[string]bool),
		claimedListings: make(map[string]bool),
		pmsListingIDs:   make(map[string][]string),
	}
}

func (f *fakeStore) TryClaimEventID(ctx context.Context, eventID string) (bool, error) {
	if f.claimedEvents[eventID] {
		return false, nil
	}
	f.claimedEvents[eventID] = true
	return true, nil
}

func (f *fakeStore) TryClaimUsedListingID(ctx context.Context, listingID string, tenantID string) (bool, error) {
	if f.claimedListings[listingID] {
		return false, nil
	}
	f.claimedListings[listingID] = true
	return true, nil
}

func (f *fakeStore) RecordCheckoutCompleted(ctx context.Context, tenantID, customerID, subscriptionID, status string) error {
	f.checkoutCalls++
	return nil
}

func (f *fakeStore) ListPMSListingIDsForTenant(ctx context.Context, tenantID string) ([]string, error) {
	return f.pmsListingIDs[tenantID], nil
}

func (f *fakeStore) RecordPaymentFailed(ctx context.Context, customerID string) error {
	f.paymentFailedCalls++
	return nil
}

func (f *fakeStore) RecordPaymentSucceeded(ctx context.Context, customerID string) error {
	f.paymentSuccessCalls++
	return nil
}

func (f *fakeStore) RecordSubscriptionUpdate(ctx context.Context, customerID, subscriptionID, status string) error {
	f.subscriptionCalls++
	return nil
}

func (f *fakeStore) RecordSubscriptionDeleted(ctx context.Context, customerID, subscriptionID string) error {
	f.deletedCalls++
	return nil
}

func checkoutEvent(id, listingID string) stripe.Event {
	raw, _ := json.Marshal(map[string]any{
		"customer":     "cus_1",
		"subscription": "sub_1",
		"status":       "active",
		"metadata":     map[string]string{"tenant_id": "t1", "listing_id": listingID},
	})
	return stripe.Event{ID: id, Type: "checkout.session.completed", Data: &stripe.EventData{Raw: raw}}
}

func TestHandleEventIsIdempotent(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, slog.Default())

	event := checkoutEvent("evt_1", "listing_1")

	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("replayed delivery: %v", err)
	}

	if len(store.claimedListings) != 1 {
		t.Fatalf("expected listing to be claimed exactly once across both deliveries, got %d", len(store.claimedListings))
	}
	if store.checkoutCalls != 1 {
		t.Fatalf("expected checkout completion recorded once, got %d", store.checkoutCalls)
	}
}

func TestHandleCheckoutSessionCompletedRegistersExistingListings(t *testing.T) {
	store := newFakeStore()
	store.pmsListingIDs["t1"] = []string{"listing_a", "listing_b"}
	h := NewHandler(store, slog.Default())

	event := checkoutEvent("evt_1", "listing_c")
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	for _, id := range []string{"listing_a", "listing_b", "listing_c"} {
		if !store.claimedListings[id] {
			t.Fatalf("expected %s to be registered into the used-listing-id set", id)
		}
	}
}

func TestHandlePaymentFailed(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, slog.Default())

	raw, _ := json.Marshal(map[string]any{"customer": "cus_1", "subscription": "sub_1"})
	event := stripe.Event{ID: "evt_pf", Type: "invoice.payment_failed", Data: &stripe.EventData{Raw: raw}}

	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if store.paymentFailedCalls != 1 {
		t.Fatalf("expected 1 payment-failed call, got %d", store.paymentFailedCalls)
	}
}

func TestHandlePaymentSucceeded(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, slog.Default())

	raw, _ := json.Marshal(map[string]any{"customer": "cus_1", "subscription": "sub_1"})
	event := stripe.Event{ID: "evt_ps", Type: "invoice.payment_succeeded", Data: &stripe.EventData{Raw: raw}}

	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if store.paymentSuccessCalls != 1 {
		t.Fatalf("expected 1 payment-succeeded call, got %d", store.paymentSuccessCalls)
	}
}

func TestHandleSubscriptionUpdated(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, slog.Default())

	raw, _ := json.Marshal(map[string]any{"id": "sub_1", "customer": "cus_1", "status": "active"})
	event := stripe.Event{ID: "evt_2", Type: "customer.subscription.updated", Data: &stripe.EventData{Raw: raw}}

	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if store.subscriptionCalls != 1 {
		t.Fatalf("expected 1 subscription update call, got %d", store.subscriptionCalls)
	}
}

func TestHandleSubscriptionDeleted(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, slog.Default())

	raw, _ := json.Marshal(map[string]any{"id": "sub_1", "customer": "cus_1"})
	event := stripe.Event{ID: "evt_del", Type: "customer.subscription.deleted", Data: &stripe.EventData{Raw: raw}}

	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if store.deletedCalls != 1 {
		t.Fatalf("expected 1 subscription deletion call, got %d", store.deletedCalls)
	}
}

func TestHandleEventIgnoresUnknownType(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, slog.Default())

	event := stripe.Event{ID: "evt_3", Type: "some.unhandled.type", Data: &stripe.EventData{Raw: []byte(`{}`)}}
	if err := h.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("expected unknown event types to be ignored without error, got %v", err)
	}
}
