package orchestration

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/devco/pricingcore/pkg/domain"
	"github.com/devco/pricingcore/pkg/geo"
)

type fakeAudit struct {
	logged []domain.PropertyMutation
}

func (f *fakeAudit) LogMutation(m domain.PropertyMutation) {
	f.logged = append(f.logged, m)
}

type fakeBilling struct {
	dirtyTenants []uuid.UUID
}

func (f *fakeBilling) MarkDirty(ctx context.Context, tenantID uuid.UUID) {
	f.dirtyTenants = append(f.dirtyTenants, tenantID)
}

func TestChangePropertyStatusRejectsNonManager(t *testing.T) {
	audit, billing := &fakeAudit{}, &fakeBilling{}
	o := New(audit, billing)

	prop := PropertyForStatusChange{ID: uuid.New(), Status: domain.PropertyStatusActive}
	err := o.ChangePropertyStatus(context.Background(), prop, domain.PropertyStatusArchived, domain.Actor{Role: domain.RoleMember})

	if err == nil {
		t.Fatal("expected authorization error for a member role")
	}
	if len(audit.logged) != 0 {
		t.Fatal("expected no audit entry for a rejected mutation")
	}
}

func TestChangePropertyStatusRejectsInvalidTransition(t *testing.T) {
	audit, billing := &fakeAudit{}, &fakeBilling{}
	o := New(audit, billing)

	prop := PropertyForStatusChange{ID: uuid.New(), Status: domain.PropertyStatusArchived}
	// archived -> archived is a same-state no-op (allowed); archived jumping
	// straight past error is fine, but there is no archived->??? invalid
	// edge in this state machine other than itself being skipped, so assert
	// on a genuinely invalid target instead.
	err := o.ChangePropertyStatus(context.Background(), prop, domain.PropertyStatus("deleted"), domain.Actor{Role: domain.RoleAdmin})
	if err == nil {
		t.Fatal("expected validation error for an unrecognized target status")
	}
}

func TestChangePropertyStatusLogsAndTriggersBilling(t *testing.T) {
	audit, billing := &fakeAudit{}, &fakeBilling{}
	o := New(audit, billing)

	tenantID := uuid.New()
	prop := PropertyForStatusChange{ID: uuid.New(), TenantID: tenantID, Status: domain.PropertyStatusActive}
	err := o.ChangePropertyStatus(context.Background(), prop, domain.PropertyStatusArchived, domain.Actor{Role: domain.RoleAdmin})

	if err != nil {
		t.Fatalf("expected a valid admin transition to succeed, got %v", err)
	}
	if len(audit.logged) != 1 {
		t.Fatalf("expected exactly 1 audit entry, got %d", len(audit.logged))
	}
	if len(billing.dirtyTenants) != 1 || billing.dirtyTenants[0] != tenantID {
		t.Fatalf("expected billing to be marked dirty for tenant %v, got %v", tenantID, billing.dirtyTenants)
	}
}

func TestCheckGroupCoherenceRejectsMismatchedCapacity(t *testing.T) {
	main := PropertyForGeoCheck{Capacity: 4, SurfaceArea: 80, PropertyType: "apartment", Location: geo.Point{Latitude: 48.85, Longitude: 2.35}}
	candidate := main
	candidate.Capacity = 6

	if err := CheckGroupCoherence(candidate, main); err == nil {
		t.Fatal("expected capacity mismatch to be rejected")
	}
}

func TestCheckGroupCoherenceRejectsOutOfRadius(t *testing.T) {
	main := PropertyForGeoCheck{Capacity: 4, SurfaceArea: 80, PropertyType: "apartment", Location: geo.Point{Latitude: 48.85, Longitude: 2.35}}
	candidate := main
	candidate.Location = geo.Point{Latitude: 40.0, Longitude: -73.0}

	err := CheckGroupCoherence(candidate, main)
	if err == nil {
		t.Fatal("expected geofencing violation for a property far from the group")
	}
	derr, ok := err.(*domain.Error)
	if !ok || derr.Code != domain.CodeGeoFencingViolation {
		t.Fatalf("expected CodeGeoFencingViolation, got %v", err)
	}
	if _, ok := derr.Fields["distance"]; !ok {
		t.Fatal("expected Fields to carry the computed distance")
	}
	if derr.Fields["maxDistance"] != domain.GeoFenceRadiusMeters {
		t.Fatalf("expected Fields[\"maxDistance\"] = %v, got %v", domain.GeoFenceRadiusMeters, derr.Fields["maxDistance"])
	}
}

func TestAddPropertyToGroupRejectsIncoherentCandidate(t *testing.T) {
	audit, billing := &fakeAudit{}, &fakeBilling{}
	o := New(audit, billing)

	main := PropertyForGeoCheck{ID: uuid.New(), TenantID: uuid.New(), Capacity: 4, SurfaceArea: 80, PropertyType: "apartment", Location: geo.Point{Latitude: 48.8566, Longitude: 2.3522}}
	candidate := main
	candidate.ID = uuid.New()
	candidate.Location = geo.Point{Latitude: 40.0, Longitude: -73.0}

	applied := false
	err := o.AddPropertyToGroup(context.Background(), candidate, main, uuid.New(), domain.Actor{Role: domain.RoleAdmin}, func(context.Context) error {
		applied = true
		return nil
	})

	if err == nil {
		t.Fatal("expected geofencing rejection to short-circuit before apply")
	}
	if applied {
		t.Fatal("apply must not run when coherence fails")
	}
	if len(billing.dirtyTenants) != 0 {
		t.Fatal("billing must not be marked dirty on a rejected add")
	}
}

func TestAddPropertyToGroupAppliesAndTriggersBilling(t *testing.T) {
	audit, billing := &fakeAudit{}, &fakeBilling{}
	o := New(audit, billing)

	tenantID := uuid.New()
	main := PropertyForGeoCheck{ID: uuid.New(), TenantID: tenantID, Capacity: 4, SurfaceArea: 80, PropertyType: "apartment", Location: geo.Point{Latitude: 48.8566, Longitude: 2.3522}}
	candidate := main
	candidate.ID = uuid.New()
	candidate.Location = geo.Point{Latitude: 48.8570, Longitude: 2.3525}

	applied := false
	err := o.AddPropertyToGroup(context.Background(), candidate, main, uuid.New(), domain.Actor{Role: domain.RoleAdmin}, func(context.Context) error {
		applied = true
		return nil
	})

	if err != nil {
		t.Fatalf("expected coherent add to succeed, got %v", err)
	}
	if !applied {
		t.Fatal("expected apply to run")
	}
	if len(billing.dirtyTenants) != 1 || billing.dirtyTenants[0] != tenantID {
		t.Fatalf("expected billing marked dirty for tenant %v, got %v", tenantID, billing.dirtyTenants)
	}
}

func TestCheckGroupCoherenceAcceptsMatchingNearbyProperty(t *testing.T) {
	main := PropertyForGeoCheck{Capacity: 4, SurfaceArea: 80, PropertyType: "apartment", Location: geo.Point{Latitude: 48.8566, Longitude: 2.3522}}
	candidate := main
	candidate.Location = geo.Point{Latitude: 48.8570, Longitude: 2.3525}

	if err := CheckGroupCoherence(candidate, main); err != nil {
		t.Fatalf("expected a matching, nearby property to pass, got %v", err)
	}
}

func TestGetOrInitTeamID(t *testing.T) {
	tenantID := uuid.New()
	if got := GetOrInitTeamID(uuid.Nil, tenantID); got != tenantID {
		t.Fatalf("expected lazy init to tenant id, got %v", got)
	}

	existing := uuid.New()
	if got := GetOrInitTeamID(existing, tenantID); got != existing {
		t.Fatalf("expected existing team id to be preserved, got %v", got)
	}
}
