package pricing

import (
	"context"
	"time"

	"github.com/devco/pricingcore/internal/telemetry"
)

// Builder produces 180-day calendars, preferring DeterministicStrategy and
// falling back to an AIStrategy only when signals are too thin.
type Builder struct {
	ai *AIStrategy
}

// NewBuilder builds a Builder. ai may be nil, in which case a thin-signal
// property's calendar keeps the deterministic estimate rather than calling
// out to a model.
func NewBuilder(ai *AIStrategy) *Builder {
	return &Builder{ai: ai}
}

// Build computes a 180-day calendar starting at startDate. existing holds
// any days already on the calendar (for lock preservation and day-over-day
// bounding); it need not cover the full horizon.
func (b *Builder) Build(ctx context.Context, propertyID string, startDate time.Time, signals Signals, existing []ExistingDay, constraints Constraints) Calendar {
	dates := make([]time.Time, CalendarDays)
	for i := range dates {
		dates[i] = startDate.AddDate(0, 0, i)
	}

	existingByDate := make(map[string]ExistingDay, len(existing))
	for _, e := range existing {
		existingByDate[e.Date.Format("2006-01-02")] = e
	}

	strategy := "deterministic"
	var raw []int64
	if signals.IsUsable() || b.ai == nil {
		raw = DeterministicStrategy{}.Price(signals, dates)
	} else {
		aiPrices, err := b.ai.Price(ctx, signals, dates, constraints)
		if err != nil {
			telemetry.PricingRunsTotal.WithLabelValues("ai_fallback", "error_fell_back").Inc()
			raw = DeterministicStrategy{}.Price(signals, dates)
		} else {
			strategy = "ai_fallback"
			raw = aiPrices
		}
	}

	var prevPrice int64
	havePrev := false
	if prior, ok := existingByDate[startDate.AddDate(0, 0, -1).Format("2006-01-02")]; ok {
		prevPrice = prior.PriceCents
		havePrev = true
	}

	clamped := clamp(raw, prevPrice, havePrev, constraints)

	days := make([]Day, CalendarDays)
	lockedCount := 0
	for i, d := range dates {
		key := d.Format("2006-01-02")
		if ex, ok := existingByDate[key]; ok && ex.Locked {
			days[i] = Day{Date: d, PriceCents: ex.PriceCents, Locked: true, Strategy: "locked"}
			lockedCount++
			continue
		}
		days[i] = Day{Date: d, PriceCents: clamped[i], Locked: false, Strategy: strategy}
	}

	telemetry.PricingRunsTotal.WithLabelValues(strategy, "ok").Inc()
	telemetry.PricingDaysWrittenTotal.Add(float64(CalendarDays - lockedCount))
	telemetry.PricingDaysLockedTotal.Add(float64(lockedCount))

	return Calendar{PropertyID: propertyID, Days: days}
}
