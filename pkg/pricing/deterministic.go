package pricing

import "time"

// strategyDamping scales how much of the combined weather/event/trend boost
// above neutral a risk profile is willing to pass through to the price: a
// prudent owner gets half of it, equilibre (and unset) passes it through
// unchanged, and an agressif owner gets it amplified by a quarter.
func strategyDamping(strategy string) float64 {
	switch strategy {
	case "prudent":
		return 0.5
	case "agressif":
		return 1.25
	default: // "equilibre" and unset
		return 1.0
	}
}

// DeterministicStrategy prices every day from Signals alone: competitor
// average when available, else the property's own base price, adjusted by
// weather/event/trend boosts (scaled by the property's strategy) and a
// weekend premium.
type DeterministicStrategy struct{}

func (DeterministicStrategy) Name() string { return "deterministic" }

// Price computes raw (pre-clamp) prices for the given dates.
func (DeterministicStrategy) Price(signals Signals, dates []time.Time) []int64 {
	base := signals.BasePriceCents
	if signals.HasCompetitorData && signals.CompetitorAvgCents > 0 {
		base = signals.CompetitorAvgCents
	}

	boost := 1.0
	if signals.WeatherBoost > 0 {
		boost *= signals.WeatherBoost
	}
	if signals.EventBoost > 0 {
		boost *= signals.EventBoost
	}
	if signals.TrendBoost > 0 {
		boost *= signals.TrendBoost
	}
	damping := strategyDamping(signals.Strategy)
	boost = 1.0 + (boost-1.0)*damping

	weekendMarkup := 1.0
	if signals.WeekendMarkupPercent > 0 {
		weekendMarkup = 1.0 + signals.WeekendMarkupPercent/100.0
	}

	out := make([]int64, len(dates))
	for i, d := range dates {
		price := float64(base) * boost
		if isWeekend(d) {
			price *= weekendMarkup
		}
		out[i] = int64(price)
	}
	return out
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Friday || wd == time.Saturday
}

// IsUsable reports whether the available signals are strong enough for the
// deterministic strategy to be trusted: a base price is mandatory, and at
// least one external signal (competitor data, a non-neutral boost) should
// back it up. When this returns false, the calendar builder falls back to
// the AI-assisted strategy.
func (s Signals) IsUsable() bool {
	if s.BasePriceCents <= 0 {
		return false
	}
	if s.HasCompetitorData && s.CompetitorAvgCents > 0 {
		return true
	}
	if s.WeatherBoost != 0 && s.WeatherBoost != 1.0 {
		return true
	}
	if s.EventBoost != 0 && s.EventBoost != 1.0 {
		return true
	}
	if s.TrendBoost != 0 && s.TrendBoost != 1.0 {
		return true
	}
	return false
}
