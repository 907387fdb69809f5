package billing

import (
	"sort"

	"github.com/google/uuid"
)

// GroupMembership describes one group's properties for quantity purposes.
type GroupMembership struct {
	GroupID        uuid.UUID
	MainPropertyID uuid.UUID // zero UUID if unset
	PropertyIDs    []uuid.UUID
}

// Quantities is the parent/child unit count driving Stripe subscription
// item quantities.
type Quantities struct {
	ParentUnits int
	ChildUnits  int
}

// ComputeQuantities derives parent/child quantities from every active
// standalone property and every group's membership. Standalone properties
// (not listed in any group) are always parent units.
//
// Within a group, the parent unit is the group's main property if it is
// still a member; otherwise the first member in ID order becomes the
// parent so a group is never left without exactly one parent unit. Every
// other member of the group is a child unit.
func ComputeQuantities(standalonePropertyIDs []uuid.UUID, groups []GroupMembership) Quantities {
	q := Quantities{ParentUnits: len(standalonePropertyIDs)}

	for _, g := range groups {
		if len(g.PropertyIDs) == 0 {
			continue
		}

		members := make([]uuid.UUID, len(g.PropertyIDs))
		copy(members, g.PropertyIDs)
		sort.Slice(members, func(i, j int) bool {
			return members[i].String() < members[j].String()
		})

		parent := members[0]
		if g.MainPropertyID != uuid.Nil {
			for _, m := range members {
				if m == g.MainPropertyID {
					parent = g.MainPropertyID
					break
				}
			}
		}

		q.ParentUnits++
		q.ChildUnits += len(members) - 1
		_ = parent // parent identity doesn't affect counts, only which Stripe line item id maps where if itemized per-property
	}

	return q
}
