package domain

import (
	"time"

	"github.com/google/uuid"
)

// PropertyStatus is the state-machine status of a Property. Valid
// transitions: active<->archived, active<->error, archived<->error.
type PropertyStatus string

const (
	PropertyStatusActive   PropertyStatus = "active"
	PropertyStatusArchived PropertyStatus = "archived"
	PropertyStatusError    PropertyStatus = "error"
)

// CanTransitionPropertyStatus reports whether from->to is an allowed edge.
func CanTransitionPropertyStatus(from, to PropertyStatus) bool {
	switch {
	case from == to:
		return true
	case from == PropertyStatusActive && to == PropertyStatusArchived:
		return true
	case from == PropertyStatusArchived && to == PropertyStatusActive:
		return true
	case from == PropertyStatusActive && to == PropertyStatusError:
		return true
	case from == PropertyStatusError && to == PropertyStatusActive:
		return true
	case from == PropertyStatusArchived && to == PropertyStatusError:
		return true
	case from == PropertyStatusError && to == PropertyStatusArchived:
		return true
	default:
		return false
	}
}

// SubscriptionStatus mirrors Stripe subscription lifecycle states relevant
// to billing reconciliation.
type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// TrialPropertyLimit is the maximum number of active properties a trialing
// tenant may hold before billing reconciliation rejects further additions
// with CodeLimitExceeded.
const TrialPropertyLimit = 10

// Role gates who may perform property status transitions and group
// membership edits.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// CanManageProperties reports whether role may change property status or
// group membership.
func CanManageProperties(role Role) bool {
	return role == RoleAdmin || role == RoleManager
}

// Actor identifies who performed a mutating operation, for audit logging
// and authorization checks.
type Actor struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// GeoFenceRadiusMeters is the maximum great-circle distance a property may
// sit from its group's main property while remaining a coherent member.
const GeoFenceRadiusMeters = 500.0

// PropertyMutation describes a change to a property for audit logging and
// downstream billing/PMS-sync triggers.
type PropertyMutation struct {
	PropertyID uuid.UUID
	Actor      Actor
	Action     string
	Changes    map[string]any
	At         time.Time
}
