package pms

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DemoAdapter is an in-memory Provider used for local development and
// tests, so the gateway and scheduler can be exercised without a live PMS
// account.
type DemoAdapter struct {
	mu           sync.Mutex
	properties   []RemoteProperty
	reservations map[string]RemoteReservation
}

// NewDemoAdapter builds a DemoAdapter seeded with the given properties.
func NewDemoAdapter(properties []RemoteProperty) *DemoAdapter {
	return &DemoAdapter{
		properties:   properties,
		reservations: make(map[string]RemoteReservation),
	}
}

func (a *DemoAdapter) Name() string { return "demo" }

func (a *DemoAdapter) TestConnection(ctx context.Context, credentials []byte) error {
	return nil
}

func (a *DemoAdapter) GetProperties(ctx context.Context, credentials []byte) ([]RemoteProperty, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]RemoteProperty, len(a.properties))
	copy(out, a.properties)
	return out, nil
}

func (a *DemoAdapter) GetReservations(ctx context.Context, credentials []byte, propertyExternalID string, since time.Time) ([]RemoteReservation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []RemoteReservation
	for _, r := range a.reservations {
		if r.PropertyID == propertyExternalID && !r.CheckOut.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (a *DemoAdapter) CreateReservation(ctx context.Context, credentials []byte, res RemoteReservation) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := uuid.NewString()
	res.ExternalID = id
	a.reservations[id] = res
	return id, nil
}

func (a *DemoAdapter) UpdateReservation(ctx context.Context, credentials []byte, res RemoteReservation) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.reservations[res.ExternalID]; !ok {
		return ErrUnsupported
	}
	a.reservations[res.ExternalID] = res
	return nil
}

func (a *DemoAdapter) DeleteReservation(ctx context.Context, credentials []byte, externalID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.reservations, externalID)
	return nil
}

func (a *DemoAdapter) UpdatePropertySettings(ctx context.Context, credentials []byte, propertyExternalID string, settings map[string]any) error {
	return nil
}

func (a *DemoAdapter) UpdateRate(ctx context.Context, credentials []byte, update RateUpdate) error {
	return nil
}

func (a *DemoAdapter) UpdateBatchRates(ctx context.Context, credentials []byte, updates []RateUpdate) error {
	return nil
}
