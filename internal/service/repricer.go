// Package service wires the C1-C8 domain packages together: it adapts
// internal/store's persistence surface to the narrow interfaces each
// pkg/ component expects, so pkg/ itself never imports internal/db
// directly.
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
	"github.com/devco/pricingcore/pkg/pricing"
)

// fallbackCeilingMultiplier bounds a property that was created without a
// ceiling override: 3x base price stands in until the owner sets one.
const (
	fallbackCeilingMultiplier = 3.0
	maxDayOverDaySwing        = 0.25
	preferredCentsEnding      = 99
)

// PropertyRepricer implements scheduler.PropertyPricer: it loads a
// property, builds a fresh 180-day calendar, pushes the new rates out if
// the tenant has PMS sync enabled, and then persists the calendar.
type PropertyRepricer struct {
	store    *store.Store
	builder  *pricing.Builder
	registry *pms.Registry
	logger   *slog.Logger
}

func NewPropertyRepricer(st *store.Store, builder *pricing.Builder, registry *pms.Registry, logger *slog.Logger) *PropertyRepricer {
	return &PropertyRepricer{store: st, builder: builder, registry: registry, logger: logger}
}

// RepriceProperty builds a new calendar for propertyID and, if the
// property's tenant has PMS sync enabled, pushes the rates to the remote
// PMS before committing anything locally. A rejected or failed push aborts
// the whole run: nothing is written to the local calendar, so the local
// store and the remote PMS never disagree about what rates are live.
func (p *PropertyRepricer) RepriceProperty(ctx context.Context, propertyID string) error {
	id, err := uuid.Parse(propertyID)
	if err != nil {
		return fmt.Errorf("parsing property id %q: %w", propertyID, err)
	}

	property, err := p.store.GetProperty(ctx, id)
	if err != nil {
		return fmt.Errorf("loading property: %w", err)
	}
	if property == nil {
		return fmt.Errorf("property %s not found", propertyID)
	}

	tenant, err := p.store.GetTenant(ctx, property.TenantID)
	if err != nil {
		return fmt.Errorf("loading tenant: %w", err)
	}
	if tenant == nil {
		return fmt.Errorf("tenant %s not found", property.TenantID)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	horizonEnd := today.AddDate(0, 0, pricing.CalendarDays)

	existingRows, err := p.store.ListPriceOverridesForProperty(ctx, id, today, horizonEnd)
	if err != nil {
		return fmt.Errorf("loading existing price overrides: %w", err)
	}
	existing := make([]pricing.ExistingDay, len(existingRows))
	for i, row := range existingRows {
		existing[i] = pricing.ExistingDay{Date: row.Date, PriceCents: int64(row.PriceCents), Locked: row.Locked}
	}

	signals := p.deriveSignals(property, existingRows)
	constraints := propertyConstraints(property)

	calendar := p.builder.Build(ctx, propertyID, today, signals, existing, constraints)

	if tenant.PmsSyncEnabled {
		if err := p.pushRates(ctx, property, calendar); err != nil {
			return fmt.Errorf("pushing rates to pms: %w", err)
		}
	}

	overrides := make([]db.UpsertPriceOverrideParams, len(calendar.Days))
	for i, day := range calendar.Days {
		overrides[i] = db.UpsertPriceOverrideParams{
			ID:         uuid.New(),
			PropertyID: id,
			Date:       day.Date,
			PriceCents: int32(day.PriceCents),
			Locked:     day.Locked,
		}
	}
	if _, err := p.store.UpsertPriceOverrides(ctx, overrides); err != nil {
		return fmt.Errorf("persisting price overrides: %w", err)
	}

	return nil
}

// propertyConstraints translates a property's stored pricing rules into
// the calendar builder's Constraints, falling back to a generous ceiling
// when the owner hasn't configured one.
func propertyConstraints(property *db.Property) pricing.Constraints {
	ceiling := int64(float64(property.BasePriceCents) * fallbackCeilingMultiplier)
	if property.CeilingPriceCents.Valid {
		ceiling = int64(property.CeilingPriceCents.Int32)
	}
	maxStay := 0
	if property.MaxStay.Valid {
		maxStay = int(property.MaxStay.Int32)
	}
	var weeklyDiscount, monthlyDiscount float64
	if property.WeeklyDiscountPercent.Valid {
		weeklyDiscount = property.WeeklyDiscountPercent.Float64
	}
	if property.MonthlyDiscountPercent.Valid {
		monthlyDiscount = property.MonthlyDiscountPercent.Float64
	}

	return pricing.Constraints{
		FloorCents:             int64(property.FloorPriceCents),
		CeilingCents:           ceiling,
		MaxDayOverDayPct:       maxDayOverDaySwing,
		PreferredEnding:        preferredCentsEnding,
		MinStay:                int(property.MinStay),
		MaxStay:                maxStay,
		WeeklyDiscountPercent:  weeklyDiscount,
		MonthlyDiscountPercent: monthlyDiscount,
	}
}

// deriveSignals builds the deterministic pricing input from the
// property's configured base rate and its own recent (non-locked) price
// history, standing in for the market-data feeds (competitor rate
// shopping, weather, local events) this deployment has not wired a
// provider for yet.
func (p *PropertyRepricer) deriveSignals(property *db.Property, existing []db.PriceOverride) pricing.Signals {
	signals := pricing.Signals{
		BasePriceCents: int64(property.BasePriceCents),
		Strategy:       property.Strategy,
	}
	if property.WeekendMarkupPercent.Valid {
		signals.WeekendMarkupPercent = property.WeekendMarkupPercent.Float64
	}

	var sum int64
	var count int
	for _, row := range existing {
		if row.Locked {
			continue
		}
		sum += int64(row.PriceCents)
		count++
	}
	if count > 0 {
		avg := sum / int64(count)
		if avg > 0 {
			signals.TrendBoost = float64(avg) / float64(property.BasePriceCents)
		}
	}
	return signals
}

// pushRates pushes the calendar's rates to the property's PMS. This is an
// abort-on-failure mutation (pkg/pmssync.ClassAbortOnFailure): a property
// with no linked PMS integration is a no-op, but a linked property whose
// push fails returns an error so the caller writes nothing locally.
func (p *PropertyRepricer) pushRates(ctx context.Context, property *db.Property, calendar pricing.Calendar) error {
	if !property.PmsExternalID.Valid || !property.IntegrationID.Valid {
		return nil
	}

	integration, err := p.store.GetIntegration(ctx, uuidFromPg(property.IntegrationID))
	if err != nil {
		return fmt.Errorf("loading integration: %w", err)
	}
	if integration == nil {
		return nil
	}

	provider, ok := p.registry.Get(integration.Type)
	if !ok {
		return fmt.Errorf("no pms adapter registered for integration type %q", integration.Type)
	}

	gateway := pmssync.NewGateway(provider, integration.Credentials, p.logger)
	updates := make([]pms.RateUpdate, len(calendar.Days))
	for i, day := range calendar.Days {
		updates[i] = pms.RateUpdate{
			PropertyExternalID: property.PmsExternalID.String,
			Date:               day.Date,
			PriceCents:         day.PriceCents,
		}
	}
	if err := gateway.PushRates(ctx, updates); err != nil {
		p.logger.Error("pushing repriced rates to pms", "error", err, "property_id", property.ID)
		return err
	}
	return nil
}

func uuidFromPg(v pgtype.UUID) uuid.UUID {
	return uuid.UUID(v.Bytes)
}
