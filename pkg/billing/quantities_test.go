package billing

import (
	"testing"

	"github.com/google/uuid"
)

func TestComputeQuantitiesStandaloneOnly(t *testing.T) {
	standalone := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	q := ComputeQuantities(standalone, nil)

	if q.ParentUnits != 3 {
		t.Errorf("ParentUnits = %d, want 3", q.ParentUnits)
	}
	if q.ChildUnits != 0 {
		t.Errorf("ChildUnits = %d, want 0", q.ChildUnits)
	}
}

func TestComputeQuantitiesGroupWithMainProperty(t *testing.T) {
	main := uuid.New()
	members := []uuid.UUID{main, uuid.New(), uuid.New()}

	q := ComputeQuantities(nil, []GroupMembership{
		{GroupID: uuid.New(), MainPropertyID: main, PropertyIDs: members},
	})

	if q.ParentUnits != 1 {
		t.Errorf("ParentUnits = %d, want 1", q.ParentUnits)
	}
	if q.ChildUnits != 2 {
		t.Errorf("ChildUnits = %d, want 2", q.ChildUnits)
	}
}

func TestComputeQuantitiesGroupWithoutMainPropertyPicksFirst(t *testing.T) {
	members := []uuid.UUID{uuid.New(), uuid.New()}

	q := ComputeQuantities(nil, []GroupMembership{
		{GroupID: uuid.New(), PropertyIDs: members},
	})

	if q.ParentUnits != 1 || q.ChildUnits != 1 {
		t.Fatalf("got %+v, want 1 parent / 1 child", q)
	}
}

func TestComputeQuantitiesMixed(t *testing.T) {
	standalone := []uuid.UUID{uuid.New()}
	groupMain := uuid.New()
	q := ComputeQuantities(standalone, []GroupMembership{
		{GroupID: uuid.New(), MainPropertyID: groupMain, PropertyIDs: []uuid.UUID{groupMain, uuid.New()}},
	})

	if q.ParentUnits != 2 {
		t.Errorf("ParentUnits = %d, want 2 (1 standalone + 1 group parent)", q.ParentUnits)
	}
	if q.ChildUnits != 1 {
		t.Errorf("ChildUnits = %d, want 1", q.ChildUnits)
	}
}
