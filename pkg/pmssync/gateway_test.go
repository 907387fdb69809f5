package pmssync

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/devco/pricingcore/pkg/pms"
)

func TestPushRatesSucceedsWithDemoAdapter(t *testing.T) {
	adapter := pms.NewDemoAdapter(nil)
	g := NewGateway(adapter, nil, slog.Default())

	err := g.PushRates(context.Background(), []pms.RateUpdate{
		{PropertyExternalID: "p1", Date: time.Now(), PriceCents: 10000},
	})
	if err != nil {
		t.Fatalf("expected demo adapter to succeed, got %v", err)
	}
}

func TestPushReservationsIsBestEffort(t *testing.T) {
	adapter := pms.NewDemoAdapter(nil)
	g := NewGateway(adapter, nil, slog.Default())

	mutations := []ReservationMutation{
		{Kind: "create", Reservation: pms.RemoteReservation{PropertyID: "p1", CheckIn: time.Now(), CheckOut: time.Now().AddDate(0, 0, 2)}},
		{Kind: "update", Reservation: pms.RemoteReservation{ExternalID: "does-not-exist"}},
		{Kind: "create", Reservation: pms.RemoteReservation{PropertyID: "p2", CheckIn: time.Now(), CheckOut: time.Now().AddDate(0, 0, 1)}},
	}

	errs := g.PushReservations(context.Background(), mutations)
	if len(errs) != 1 {
		t.Fatalf("expected exactly 1 error (the update to a nonexistent reservation), got %d: %v", len(errs), errs)
	}
}

func TestPullReservationsUpsertsEach(t *testing.T) {
	adapter := pms.NewDemoAdapter(nil)
	g := NewGateway(adapter, nil, slog.Default())

	id, err := adapter.CreateReservation(context.Background(), nil, pms.RemoteReservation{
		PropertyID: "p1", CheckIn: time.Now(), CheckOut: time.Now().AddDate(0, 0, 3),
	})
	if err != nil {
		t.Fatalf("seeding reservation: %v", err)
	}

	var upserted []string
	err = g.PullReservations(context.Background(), "p1", time.Now().AddDate(0, 0, -1), func(r pms.RemoteReservation) error {
		upserted = append(upserted, r.ExternalID)
		return nil
	})
	if err != nil {
		t.Fatalf("PullReservations returned error: %v", err)
	}
	if len(upserted) != 1 || upserted[0] != id {
		t.Fatalf("expected to upsert reservation %s, got %v", id, upserted)
	}
}
