package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/invoiceitem"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/subscriptionitem"
)

// PriceIDs identifies the Stripe Price objects for each billable SKU.
type PriceIDs struct {
	Parent string
	Child  string
}

// StripeClient wraps the subset of the Stripe API the reconciler needs,
// so the reconciler's core logic can be tested against a fake.
type StripeClient interface {
	UpdateSubscriptionItemQuantity(ctx context.Context, itemID string, quantity int64) error
	CreateProrationInvoiceItem(ctx context.Context, customerID, subscriptionID string, amountCents int64, description string) error
	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
}

// liveStripeClient is the StripeClient backed by the real Stripe API.
type liveStripeClient struct{}

// NewLiveClient builds a StripeClient bound to the process-global Stripe
// API key (set once via stripe.Key during startup).
func NewLiveClient(apiKey string) StripeClient {
	stripe.Key = apiKey
	return &liveStripeClient{}
}

func (liveStripeClient) UpdateSubscriptionItemQuantity(ctx context.Context, itemID string, quantity int64) error {
	params := &stripe.SubscriptionItemParams{
		Quantity: stripe.Int64(quantity),
	}
	params.Context = ctx
	_, err := subscriptionitem.Update(itemID, params)
	if err != nil {
		return fmt.Errorf("updating stripe subscription item quantity: %w", err)
	}
	return nil
}

func (liveStripeClient) CreateProrationInvoiceItem(ctx context.Context, customerID, subscriptionID string, amountCents int64, description string) error {
	params := &stripe.InvoiceItemParams{
		Customer:     stripe.String(customerID),
		Subscription: stripe.String(subscriptionID),
		Amount:       stripe.Int64(amountCents),
		Currency:     stripe.String(string(stripe.CurrencyUSD)),
		Description:  stripe.String(description),
	}
	params.Context = ctx
	_, err := invoiceitem.New(params)
	if err != nil {
		return fmt.Errorf("creating stripe proration invoice item: %w", err)
	}
	return nil
}

func (liveStripeClient) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("fetching stripe subscription: %w", err)
	}
	return sub, nil
}
