package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/devco/pricingcore/internal/db"
	"github.com/devco/pricingcore/internal/store"
	"github.com/devco/pricingcore/pkg/pms"
	"github.com/devco/pricingcore/pkg/pmssync"
)

// PropertyPricingRules is the owner-facing settings update a tenant can
// push to a property's PMS listing.
type PropertyPricingRules struct {
	Strategy               string
	FloorPriceCents        int32
	CeilingPriceCents      pgtype.Int4
	MinStay                int32
	MaxStay                pgtype.Int4
	WeeklyDiscountPercent  pgtype.Float8
	MonthlyDiscountPercent pgtype.Float8
	WeekendMarkupPercent   pgtype.Float8
}

// PropertySync wires the C4 gateway's settings and reservation pushes, and
// the reservation pull-back, to the C1 store — the three pmssync.Gateway
// operations RepriceProperty's rate push doesn't exercise.
type PropertySync struct {
	store    *store.Store
	registry *pms.Registry
	logger   *slog.Logger
}

func NewPropertySync(st *store.Store, registry *pms.Registry, logger *slog.Logger) *PropertySync {
	return &PropertySync{store: st, registry: registry, logger: logger}
}

// gatewayFor resolves the PMS gateway for a property, returning (nil, nil)
// when the property has no linked integration to push to.
func (s *PropertySync) gatewayFor(ctx context.Context, property *db.Property) (*pmssync.Gateway, error) {
	if !property.IntegrationID.Valid {
		return nil, nil
	}
	integration, err := s.store.GetIntegration(ctx, uuidFromPg(property.IntegrationID))
	if err != nil {
		return nil, fmt.Errorf("loading integration: %w", err)
	}
	if integration == nil {
		return nil, nil
	}
	provider, ok := s.registry.Get(integration.Type)
	if !ok {
		return nil, fmt.Errorf("no pms adapter registered for integration type %q", integration.Type)
	}
	return pmssync.NewGateway(provider, integration.Credentials, s.logger), nil
}

// UpdatePricingRules pushes a property's new pricing rules to its PMS
// before committing them locally (abort-on-failure, the same ordering
// RepriceProperty uses for rate pushes): a rejected push leaves the
// property's stored rules untouched.
func (s *PropertySync) UpdatePricingRules(ctx context.Context, propertyID uuid.UUID, rules PropertyPricingRules) (db.Property, error) {
	property, err := s.store.GetProperty(ctx, propertyID)
	if err != nil {
		return db.Property{}, fmt.Errorf("loading property: %w", err)
	}
	if property == nil {
		return db.Property{}, fmt.Errorf("property %s not found", propertyID)
	}

	if property.PmsExternalID.Valid {
		gateway, err := s.gatewayFor(ctx, property)
		if err != nil {
			return db.Property{}, err
		}
		if gateway != nil {
			settings := map[string]any{
				"strategy":                 rules.Strategy,
				"floor_price_cents":        rules.FloorPriceCents,
				"min_stay":                 rules.MinStay,
				"weekend_markup_percent":   rules.WeekendMarkupPercent.Float64,
				"weekly_discount_percent":  rules.WeeklyDiscountPercent.Float64,
				"monthly_discount_percent": rules.MonthlyDiscountPercent.Float64,
			}
			if rules.CeilingPriceCents.Valid {
				settings["ceiling_price_cents"] = rules.CeilingPriceCents.Int32
			}
			if rules.MaxStay.Valid {
				settings["max_stay"] = rules.MaxStay.Int32
			}
			if err := gateway.PushPropertySettings(ctx, property.PmsExternalID.String, settings); err != nil {
				return db.Property{}, fmt.Errorf("pushing property settings to pms: %w", err)
			}
		}
	}

	return s.store.UpdatePropertyPricingRules(ctx, db.UpdatePropertyPricingRulesParams{
		ID:                     propertyID,
		Strategy:               rules.Strategy,
		FloorPriceCents:        rules.FloorPriceCents,
		CeilingPriceCents:      rules.CeilingPriceCents,
		MinStay:                rules.MinStay,
		MaxStay:                rules.MaxStay,
		WeeklyDiscountPercent:  rules.WeeklyDiscountPercent,
		MonthlyDiscountPercent: rules.MonthlyDiscountPercent,
		WeekendMarkupPercent:   rules.WeekendMarkupPercent,
	})
}

// PushReservationMutations pushes local reservation changes for a
// property best-effort: one failing mutation is logged and the rest of
// the batch still applies, matching pmssync.ClassBestEffort.
func (s *PropertySync) PushReservationMutations(ctx context.Context, propertyID uuid.UUID, mutations []pmssync.ReservationMutation) error {
	property, err := s.store.GetProperty(ctx, propertyID)
	if err != nil {
		return fmt.Errorf("loading property: %w", err)
	}
	if property == nil {
		return fmt.Errorf("property %s not found", propertyID)
	}
	gateway, err := s.gatewayFor(ctx, property)
	if err != nil {
		return err
	}
	if gateway == nil {
		return nil
	}

	if errs := gateway.PushReservations(ctx, mutations); len(errs) > 0 {
		s.logger.Error("some reservation mutations failed to push to pms", "property_id", property.ID, "failures", len(errs))
	}
	return nil
}

// PullReservations fetches PMS-originated reservations for a property
// since the given cursor and upserts them locally, following the
// gateway's remote-first ordering.
func (s *PropertySync) PullReservations(ctx context.Context, propertyID uuid.UUID, since time.Time) error {
	property, err := s.store.GetProperty(ctx, propertyID)
	if err != nil {
		return fmt.Errorf("loading property: %w", err)
	}
	if property == nil {
		return fmt.Errorf("property %s not found", propertyID)
	}
	if !property.PmsExternalID.Valid {
		return nil
	}
	gateway, err := s.gatewayFor(ctx, property)
	if err != nil {
		return err
	}
	if gateway == nil {
		return nil
	}

	return gateway.PullReservations(ctx, property.PmsExternalID.String, since, func(r pms.RemoteReservation) error {
		if r.Status == "cancelled" {
			return s.store.DeleteBookingByExternalID(ctx, propertyID, r.ExternalID)
		}
		_, err := s.store.UpsertBooking(ctx, db.UpsertBookingParams{
			ID:         uuid.New(),
			PropertyID: propertyID,
			ExternalID: r.ExternalID,
			CheckIn:    r.CheckIn,
			CheckOut:   r.CheckOut,
			Status:     r.Status,
		})
		return err
	})
}
