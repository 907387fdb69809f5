// Package billing implements the C5 tiered billing reconciler: computing
// parent/child subscription quantities from property counts and pushing the
// resulting quantities and one-off prorations to Stripe.
package billing

// tier is one band of the parent-SKU marginal pricing table: units whose
// 1-based index falls in [From, To] (To == 0 meaning unbounded) cost
// PriceCents each.
type tier struct {
	From, To   int
	PriceCents int64
}

// parentTiers is the marginal pricing table for the parent (primary
// property) SKU: the first unit costs more than the next four, which cost
// more than the next ten, and so on down to a floor rate past unit 30.
var parentTiers = []tier{
	{From: 1, To: 1, PriceCents: 1399},
	{From: 2, To: 5, PriceCents: 1199},
	{From: 6, To: 15, PriceCents: 899},
	{From: 16, To: 30, PriceCents: 549},
	{From: 31, To: 0, PriceCents: 399},
}

// ChildPriceCents is the flat per-unit rate for child (additional, grouped)
// properties — no marginal tiering applies to the child SKU.
const ChildPriceCents int64 = 399

// TieredParentTotal sums the marginal tier prices for q parent units. A
// property at index 3, for example, costs tier 1's rate for unit 1 plus
// tier 2's rate for units 2 and 3 — not tier 2's rate applied to all 3.
func TieredParentTotal(q int) int64 {
	if q <= 0 {
		return 0
	}

	var total int64
	remaining := q
	unitIndex := 1

	for _, t := range parentTiers {
		if remaining <= 0 {
			break
		}
		upper := t.To
		if upper == 0 {
			upper = unitIndex + remaining - 1
		}
		if unitIndex > upper {
			continue
		}
		count := upper - unitIndex + 1
		if count > remaining {
			count = remaining
		}
		total += int64(count) * t.PriceCents
		remaining -= count
		unitIndex += count
	}

	return total
}

// ChildTotal is the flat total for q child units.
func ChildTotal(q int) int64 {
	if q <= 0 {
		return 0
	}
	return int64(q) * ChildPriceCents
}
