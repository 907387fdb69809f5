// Package pricing implements the C3 calendar builder: it produces a
// 180-day price calendar for a property, preferring a deterministic
// signal-driven strategy and falling back to an AI-assisted strategy only
// when deterministic signals are insufficient.
package pricing

import "time"

// CalendarDays is the fixed horizon the builder always produces.
const CalendarDays = 180

// Signals is the deterministic market data gathered for a property before
// pricing: competitor rates, demand signals, and the property's own
// historical trend.
type Signals struct {
	BasePriceCents     int64
	CompetitorAvgCents int64
	HasCompetitorData  bool
	WeatherBoost       float64 // multiplicative, 1.0 = neutral
	EventBoost         float64 // multiplicative, 1.0 = neutral
	TrendBoost         float64 // multiplicative, 1.0 = neutral

	// Strategy is the owner's chosen risk profile: "prudent", "equilibre",
	// or "agressif". It scales how aggressively boosts are applied.
	Strategy string
	// WeekendMarkupPercent is the property's configured Friday/Saturday
	// premium, e.g. 15.0 for +15%. Zero disables the weekend premium.
	WeekendMarkupPercent float64
}

// ExistingDay is a day already on the calendar before this run, used to
// preserve locks and to bound day-over-day swings.
type ExistingDay struct {
	Date       time.Time
	PriceCents int64
	Locked     bool
}

// Constraints bound the prices a run may produce.
type Constraints struct {
	FloorCents       int64
	CeilingCents     int64
	MaxDayOverDayPct float64 // e.g. 0.25 = no more than a 25% swing vs the previous day's price
	PreferredEnding  int64   // e.g. 99 for a $X.99 pricing convention, 0 to disable

	// MinStay and MaxStay are the property's configured stay-length rules,
	// in nights. MaxStay of 0 means unbounded.
	MinStay int
	MaxStay int
	// WeeklyDiscountPercent and MonthlyDiscountPercent are the property's
	// configured long-stay discounts, e.g. 10.0 for -10%. Zero disables.
	WeeklyDiscountPercent  float64
	MonthlyDiscountPercent float64
}

// Day is one output day of the calendar.
type Day struct {
	Date       time.Time
	PriceCents int64
	Locked     bool
	Strategy   string // "deterministic", "ai_fallback", or "locked" for a preserved locked day
}

// Calendar is the full 180-day output of a single builder run.
type Calendar struct {
	PropertyID string
	Days       []Day
}
