package pricing

import (
	"context"
	"testing"
	"time"
)

func TestBuildProducesFullHorizon(t *testing.T) {
	b := NewBuilder(nil)
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	signals := Signals{BasePriceCents: 10000, HasCompetitorData: true, CompetitorAvgCents: 11000}
	constraints := Constraints{FloorCents: 5000, CeilingCents: 50000, MaxDayOverDayPct: 0.5}

	cal := b.Build(context.Background(), "prop-1", start, signals, nil, constraints)

	if len(cal.Days) != CalendarDays {
		t.Fatalf("len(Days) = %d, want %d", len(cal.Days), CalendarDays)
	}

	seen := make(map[string]bool)
	for i, d := range cal.Days {
		key := d.Date.Format("2006-01-02")
		if seen[key] {
			t.Fatalf("duplicate date %s in calendar", key)
		}
		seen[key] = true

		want := start.AddDate(0, 0, i)
		if !d.Date.Equal(want) {
			t.Fatalf("day %d date = %v, want %v (not ascending/contiguous)", i, d.Date, want)
		}
	}
}

func TestBuildPreservesLockedDays(t *testing.T) {
	b := NewBuilder(nil)
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	signals := Signals{BasePriceCents: 10000, HasCompetitorData: true, CompetitorAvgCents: 11000}
	constraints := Constraints{FloorCents: 5000, CeilingCents: 50000}

	lockedDate := start.AddDate(0, 0, 5)
	existing := []ExistingDay{{Date: lockedDate, PriceCents: 42424, Locked: true}}

	cal := b.Build(context.Background(), "prop-1", start, signals, existing, constraints)

	if cal.Days[5].PriceCents != 42424 || !cal.Days[5].Locked {
		t.Fatalf("expected day 5 to preserve the locked price, got %+v", cal.Days[5])
	}
}

func TestBuildFallsBackToDeterministicWithNoAIClient(t *testing.T) {
	b := NewBuilder(nil)
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	// Thin signals: no competitor data, no boosts — would normally trigger
	// an AI fallback, but with ai == nil the builder must still produce a
	// deterministic calendar rather than panic or error.
	signals := Signals{BasePriceCents: 9000}
	constraints := Constraints{FloorCents: 1000, CeilingCents: 90000}

	cal := b.Build(context.Background(), "prop-1", start, signals, nil, constraints)

	if len(cal.Days) != CalendarDays {
		t.Fatalf("len(Days) = %d, want %d", len(cal.Days), CalendarDays)
	}
	for _, d := range cal.Days {
		if d.Strategy != "deterministic" {
			t.Fatalf("expected deterministic strategy fallback, got %q", d.Strategy)
		}
	}
}

func TestClampEnforcesFloorAndCeiling(t *testing.T) {
	raw := []int64{100, 100000, 5000}
	out := clamp(raw, 0, false, Constraints{FloorCents: 2000, CeilingCents: 20000})

	if out[0] != 2000 {
		t.Errorf("out[0] = %d, want floor 2000", out[0])
	}
	if out[1] != 20000 {
		t.Errorf("out[1] = %d, want ceiling 20000", out[1])
	}
	if out[2] != 5000 {
		t.Errorf("out[2] = %d, want unchanged 5000", out[2])
	}
}

func TestClampBoundsDayOverDaySwing(t *testing.T) {
	raw := []int64{10000, 20000}
	out := clamp(raw, 0, false, Constraints{MaxDayOverDayPct: 0.1})

	// First day has no previous, passes through unclamped.
	if out[0] != 10000 {
		t.Fatalf("out[0] = %d, want 10000", out[0])
	}
	// Second day may rise at most 10% over the (clamped) first day.
	if out[1] != 11000 {
		t.Fatalf("out[1] = %d, want 11000 (10%% cap over 10000)", out[1])
	}
}

func TestApplyPreferredEnding(t *testing.T) {
	got := applyPreferredEnding(12345, 99)
	if got != 12299 {
		t.Fatalf("applyPreferredEnding(12345, 99) = %d, want 12299", got)
	}
}

func TestSignalsIsUsable(t *testing.T) {
	cases := []struct {
		name string
		s    Signals
		want bool
	}{
		{"no base price", Signals{}, false},
		{"base price only", Signals{BasePriceCents: 1000}, false},
		{"competitor data", Signals{BasePriceCents: 1000, HasCompetitorData: true, CompetitorAvgCents: 1200}, true},
		{"weather boost", Signals{BasePriceCents: 1000, WeatherBoost: 1.2}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.s.IsUsable(); got != tc.want {
				t.Errorf("IsUsable() = %v, want %v", got, tc.want)
			}
		})
	}
}
