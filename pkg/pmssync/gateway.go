// Package pmssync implements the C4 PMS sync gateway: pushing local
// pricing/reservation mutations out to a tenant's connected PMS, and
// pulling PMS-originated reservations back in.
package pmssync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/devco/pricingcore/internal/telemetry"
	"github.com/devco/pricingcore/pkg/domain"
	"github.com/devco/pricingcore/pkg/pms"
)

// MutationClass distinguishes how a failed push should be handled.
type MutationClass string

const (
	// ClassAbortOnFailure covers strategy/rules/batch-rate pushes: any
	// failure aborts the remaining batch rather than partially applying.
	ClassAbortOnFailure MutationClass = "abort_on_failure"
	// ClassBestEffort covers individual reservation create/update/delete:
	// one failure is logged and the gateway continues with the rest.
	ClassBestEffort MutationClass = "best_effort"
)

// Gateway pushes mutations to a single tenant's PMS provider.
type Gateway struct {
	provider    pms.Provider
	credentials []byte
	logger      *slog.Logger
}

func NewGateway(provider pms.Provider, credentials []byte, logger *slog.Logger) *Gateway {
	return &Gateway{provider: provider, credentials: credentials, logger: logger}
}

// PushRates pushes a batch of rate updates. This is an abort-on-failure
// mutation class: the gateway stops at the first error so a partially
// applied rate change is never left in place.
func (g *Gateway) PushRates(ctx context.Context, updates []pms.RateUpdate) error {
	if err := g.provider.UpdateBatchRates(ctx, g.credentials, updates); err != nil {
		telemetry.PMSPushTotal.WithLabelValues("batch_rates", "error").Inc()
		return domain.NewRemoteProvider("pushing rate batch to pms", err)
	}
	telemetry.PMSPushTotal.WithLabelValues("batch_rates", "ok").Inc()
	return nil
}

// PushPropertySettings pushes a settings update. Abort-on-failure: settings
// pushes are a single atomic call so there's nothing to partially apply.
func (g *Gateway) PushPropertySettings(ctx context.Context, propertyExternalID string, settings map[string]any) error {
	if err := g.provider.UpdatePropertySettings(ctx, g.credentials, propertyExternalID, settings); err != nil {
		telemetry.PMSPushTotal.WithLabelValues("settings", "error").Inc()
		return domain.NewRemoteProvider("pushing property settings to pms", err)
	}
	telemetry.PMSPushTotal.WithLabelValues("settings", "ok").Inc()
	return nil
}

// ReservationMutation is a locally-originated change to push to the PMS.
type ReservationMutation struct {
	Kind       string // "create", "update", "delete"
	Reservation pms.RemoteReservation
}

// PushReservations pushes reservation mutations best-effort: a failure on
// one reservation is logged and does not stop the rest of the batch.
func (g *Gateway) PushReservations(ctx context.Context, mutations []ReservationMutation) []error {
	var errs []error
	for _, m := range mutations {
		var err error
		switch m.Kind {
		case "create":
			_, err = g.provider.CreateReservation(ctx, g.credentials, m.Reservation)
		case "update":
			err = g.provider.UpdateReservation(ctx, g.credentials, m.Reservation)
		case "delete":
			err = g.provider.DeleteReservation(ctx, g.credentials, m.Reservation.ExternalID)
		default:
			err = fmt.Errorf("unknown reservation mutation kind %q", m.Kind)
		}

		if err != nil {
			telemetry.PMSPushTotal.WithLabelValues("reservation_"+m.Kind, "error").Inc()
			g.logger.Error("pushing reservation mutation to pms", "error", err, "kind", m.Kind, "external_id", m.Reservation.ExternalID)
			errs = append(errs, domain.NewRemoteProvider("pushing reservation to pms", err))
			continue
		}
		telemetry.PMSPushTotal.WithLabelValues("reservation_"+m.Kind, "ok").Inc()
	}
	return errs
}

// PullReservations fetches PMS-originated reservations for a property
// since a cursor time and upserts them locally via upsert, following a
// "remote-first, then local commit" ordering: the gateway reads from the
// PMS before touching the local store, so a mid-sync crash never leaves a
// reservation recorded locally that the PMS doesn't actually have.
func (g *Gateway) PullReservations(ctx context.Context, propertyExternalID string, since time.Time, upsert func(pms.RemoteReservation) error) error {
	remote, err := g.provider.GetReservations(ctx, g.credentials, propertyExternalID, since)
	if err != nil {
		telemetry.PMSPushTotal.WithLabelValues("pull_reservations", "error").Inc()
		return domain.NewRemoteProvider("fetching pms reservations", err)
	}

	for _, r := range remote {
		if err := upsert(r); err != nil {
			return fmt.Errorf("upserting pms-originated reservation %s: %w", r.ExternalID, err)
		}
	}
	telemetry.PMSPushTotal.WithLabelValues("pull_reservations", "ok").Inc()
	return nil
}
