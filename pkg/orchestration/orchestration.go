// Package orchestration is the C8 glue layer: it wraps property mutations
// with authorization, audit logging, and the downstream billing trigger
// those mutations imply, and enforces group membership coherence.
package orchestration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/devco/pricingcore/pkg/domain"
	"github.com/devco/pricingcore/pkg/geo"
)

// AuditLogger records a property mutation. Implemented by internal/audit.Writer.
type AuditLogger interface {
	LogMutation(domain.PropertyMutation)
}

// BillingTrigger is invoked after a mutation that changes billable
// quantities (a property becoming active/archived, or group membership
// changing), so the next scheduled reconciliation picks it up.
type BillingTrigger interface {
	MarkDirty(ctx context.Context, tenantID uuid.UUID)
}

// Orchestrator ties together authorization, audit, and billing triggers
// for property mutations.
type Orchestrator struct {
	audit   AuditLogger
	billing BillingTrigger
}

func New(audit AuditLogger, billing BillingTrigger) *Orchestrator {
	return &Orchestrator{audit: audit, billing: billing}
}

// PropertyForStatusChange is the minimal property shape the status state
// machine and audit trail need.
type PropertyForStatusChange struct {
	ID       uuid.UUID
	TenantID uuid.UUID
	Status   domain.PropertyStatus
}

// ChangePropertyStatus validates the requested transition, requires the
// actor to be able to manage properties, and logs + triggers billing on
// success.
func (o *Orchestrator) ChangePropertyStatus(ctx context.Context, prop PropertyForStatusChange, to domain.PropertyStatus, actor domain.Actor) error {
	if !domain.CanManageProperties(actor.Role) {
		return domain.NewAuthorization("only admins and managers may change property status")
	}
	if !domain.CanTransitionPropertyStatus(prop.Status, to) {
		return domain.NewValidation("invalid property status transition: " + string(prop.Status) + " -> " + string(to))
	}

	o.audit.LogMutation(domain.PropertyMutation{
		PropertyID: prop.ID,
		Actor:      actor,
		Action:     "status_changed",
		Changes:    map[string]any{"from": prop.Status, "to": to},
		At:         time.Now().UTC(),
	})

	if prop.Status != to {
		o.billing.MarkDirty(ctx, prop.TenantID)
	}
	return nil
}

// PropertyForGeoCheck is the minimal property shape needed for group
// coherence checks.
type PropertyForGeoCheck struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Capacity     int
	SurfaceArea  float64
	PropertyType string
	Location     geo.Point
}

// CheckGroupCoherence enforces that a candidate property is a coherent
// member of a group: same capacity, surface area, and property type as the
// group's main property, and within the geofencing radius.
func CheckGroupCoherence(candidate, main PropertyForGeoCheck) error {
	if candidate.Capacity != main.Capacity {
		return domain.NewBusinessRule(domain.CodeGroupMembershipMismatch, "capacity does not match the group's main property")
	}
	if candidate.SurfaceArea != main.SurfaceArea {
		return domain.NewBusinessRule(domain.CodeGroupMembershipMismatch, "surface area does not match the group's main property")
	}
	if candidate.PropertyType != main.PropertyType {
		return domain.NewBusinessRule(domain.CodeGroupMembershipMismatch, "property type does not match the group's main property")
	}
	if distance := geo.DistanceMeters(candidate.Location, main.Location); distance > domain.GeoFenceRadiusMeters {
		return domain.NewBusinessRuleWithFields(domain.CodeGeoFencingViolation,
			"property is outside the group's geofencing radius",
			map[string]any{"distance": distance, "maxDistance": domain.GeoFenceRadiusMeters})
	}
	return nil
}

// AddPropertyToGroup enforces group coherence for candidate against the
// group's main property, then records membership both in the join table
// and the property's denormalized group_id, and triggers billing since
// group membership changes which property is a parent vs. child unit.
func (o *Orchestrator) AddPropertyToGroup(ctx context.Context, candidate, main PropertyForGeoCheck, groupID uuid.UUID, actor domain.Actor, apply func(ctx context.Context) error) error {
	if !domain.CanManageProperties(actor.Role) {
		return domain.NewAuthorization("only admins and managers may edit group membership")
	}
	if err := CheckGroupCoherence(candidate, main); err != nil {
		return err
	}
	if err := apply(ctx); err != nil {
		return err
	}

	o.audit.LogMutation(domain.PropertyMutation{
		PropertyID: candidate.ID,
		Actor:      actor,
		Action:     "added_to_group",
		Changes:    map[string]any{"group_id": groupID},
		At:         time.Now().UTC(),
	})
	o.billing.MarkDirty(ctx, candidate.TenantID)
	return nil
}

// GetOrInitTeamID returns the property's team id, lazily initializing it to
// the tenant id the first time a property is seen without one.
func GetOrInitTeamID(existingTeamID, tenantID uuid.UUID) uuid.UUID {
	if existingTeamID != uuid.Nil {
		return existingTeamID
	}
	return tenantID
}
