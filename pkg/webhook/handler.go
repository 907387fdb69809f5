// Package webhook implements the C7 payment webhook handler: processing
// Stripe events idempotently and registering newly-provisioned listings.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v82"

	"github.com/devco/pricingcore/internal/telemetry"
	"github.com/devco/pricingcore/pkg/domain"
)

// Store is the persistence surface the handler needs: idempotency
// tracking, listing-id dedupe, and the tenant-state effects each Stripe
// event type triggers.
type Store interface {
	TryClaimEventID(ctx context.Context, eventID string) (bool, error)
	TryClaimUsedListingID(ctx context.Context, listingID string, tenantID string) (bool, error)

	// RecordCheckoutCompleted persists the tenant's new billing identity,
	// clears access_disabled, and enables PMS sync.
	RecordCheckoutCompleted(ctx context.Context, tenantID, customerID, subscriptionID, status string) error
	// ListPMSListingIDsForTenant lists every PMS listing id the tenant's
	// properties are currently linked to, so each can be registered into
	// the used-listing-id dedupe set on checkout completion.
	ListPMSListingIDsForTenant(ctx context.Context, tenantID string) ([]string, error)

	// RecordPaymentFailed applies the trial-aware payment_failed effect:
	// flag-only while trialing, past_due/access-disabled/sync-disabled
	// otherwise.
	RecordPaymentFailed(ctx context.Context, customerID string) error
	// RecordPaymentSucceeded reactivates the tenant and restores access.
	RecordPaymentSucceeded(ctx context.Context, customerID string) error

	RecordSubscriptionUpdate(ctx context.Context, customerID, subscriptionID, status string) error
	// RecordSubscriptionDeleted cancels the tenant and disables access.
	RecordSubscriptionDeleted(ctx context.Context, customerID, subscriptionID string) error
}

// Handler processes Stripe webhook events.
type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// HandleEvent dispatches a Stripe event to the appropriate handler. It is
// idempotent per event id: a replayed delivery for an already-processed
// event is a no-op.
func (h *Handler) HandleEvent(ctx context.Context, event stripe.Event) error {
	claimed, err := h.store.TryClaimEventID(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("claiming webhook event id: %w", err)
	}
	if !claimed {
		telemetry.WebhookEventsTotal.WithLabelValues(string(event.Type) + "_duplicate").Inc()
		return nil
	}

	telemetry.WebhookEventsTotal.WithLabelValues(string(event.Type)).Inc()

	switch event.Type {
	case "checkout.session.completed":
		return h.handleCheckoutSessionCompleted(ctx, event)
	case "invoice.payment_failed":
		return h.handlePaymentFailed(ctx, event)
	case "invoice.payment_succeeded":
		return h.handlePaymentSucceeded(ctx, event)
	case "customer.subscription.updated":
		return h.handleSubscriptionUpdated(ctx, event)
	case "customer.subscription.deleted":
		return h.handleSubscriptionDeleted(ctx, event)
	default:
		h.logger.Debug("ignoring unhandled stripe webhook event type", "type", event.Type)
		return nil
	}
}

type checkoutSessionPayload struct {
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	Status       string `json:"status"`
	Metadata     struct {
		TenantID  string `json:"tenant_id"`
		ListingID string `json:"listing_id"`
	} `json:"metadata"`
}

// handleCheckoutSessionCompleted persists the tenant's new billing
// identity, restores access, and registers every PMS listing id the
// tenant already owns (plus the one named in the session metadata, if
// any) into the used-listing-id dedupe set.
func (h *Handler) handleCheckoutSessionCompleted(ctx context.Context, event stripe.Event) error {
	var session checkoutSessionPayload
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return domain.NewValidation("decoding checkout.session.completed payload: " + err.Error())
	}

	status := session.Status
	if status == "" {
		status = string(domain.SubscriptionActive)
	}
	if err := h.store.RecordCheckoutCompleted(ctx, session.Metadata.TenantID, session.Customer, session.Subscription, status); err != nil {
		return fmt.Errorf("recording checkout completion: %w", err)
	}

	listingIDs, err := h.store.ListPMSListingIDsForTenant(ctx, session.Metadata.TenantID)
	if err != nil {
		return fmt.Errorf("listing pms listing ids for tenant: %w", err)
	}
	if session.Metadata.ListingID != "" {
		listingIDs = append(listingIDs, session.Metadata.ListingID)
	}

	for _, listingID := range listingIDs {
		claimed, err := h.store.TryClaimUsedListingID(ctx, listingID, session.Metadata.TenantID)
		if err != nil {
			return fmt.Errorf("claiming used listing id: %w", err)
		}
		if !claimed {
			h.logger.Debug("listing id already registered, ignoring duplicate",
				"listing_id", listingID, "tenant_id", session.Metadata.TenantID)
		}
	}
	return nil
}

type invoicePayload struct {
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

func (h *Handler) handlePaymentFailed(ctx context.Context, event stripe.Event) error {
	var inv invoicePayload
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return domain.NewValidation("decoding invoice.payment_failed payload: " + err.Error())
	}
	return h.store.RecordPaymentFailed(ctx, inv.Customer)
}

func (h *Handler) handlePaymentSucceeded(ctx context.Context, event stripe.Event) error {
	var inv invoicePayload
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return domain.NewValidation("decoding invoice.payment_succeeded payload: " + err.Error())
	}
	return h.store.RecordPaymentSucceeded(ctx, inv.Customer)
}

type subscriptionPayload struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
}

func (h *Handler) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var sub subscriptionPayload
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return domain.NewValidation("decoding customer.subscription.updated payload: " + err.Error())
	}
	return h.store.RecordSubscriptionUpdate(ctx, sub.Customer, sub.ID, sub.Status)
}

func (h *Handler) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub subscriptionPayload
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return domain.NewValidation("decoding customer.subscription.deleted payload: " + err.Error())
	}
	return h.store.RecordSubscriptionDeleted(ctx, sub.Customer, sub.ID)
}
