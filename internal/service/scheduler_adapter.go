package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devco/pricingcore/internal/store"
	"github.com/devco/pricingcore/pkg/scheduler"
)

// SchedulerAdapter implements scheduler.TenantLister over the store,
// translating between the scheduler's string-keyed interface and the
// store's uuid.UUID-keyed one.
type SchedulerAdapter struct {
	store           *store.Store
	defaultTimezone *time.Location
}

func NewSchedulerAdapter(st *store.Store, defaultTimezone *time.Location) *SchedulerAdapter {
	if defaultTimezone == nil {
		defaultTimezone = time.UTC
	}
	return &SchedulerAdapter{store: st, defaultTimezone: defaultTimezone}
}

func (a *SchedulerAdapter) ListTenantStates(ctx context.Context) ([]scheduler.TenantState, error) {
	rows, err := a.store.ListSchedulerStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing scheduler states: %w", err)
	}

	out := make([]scheduler.TenantState, len(rows))
	for i, row := range rows {
		tenant, err := a.store.GetTenant(ctx, row.TenantID)
		if err != nil {
			return nil, fmt.Errorf("loading tenant %s: %w", row.TenantID, err)
		}

		loc := a.defaultTimezone
		if tenant != nil && tenant.DefaultTimezone != "" {
			if parsed, err := time.LoadLocation(tenant.DefaultTimezone); err == nil {
				loc = parsed
			}
		}

		state := scheduler.TenantState{
			TenantID:       row.TenantID.String(),
			Timezone:       loc,
			FailedAttempts: int(row.FailedAttempts),
		}
		if row.LastAttempt.Valid {
			state.LastAttempt = row.LastAttempt.Time
		}
		if row.LastSuccessfulRun.Valid {
			state.LastSuccessfulRun = row.LastSuccessfulRun.Time
		}
		out[i] = state
	}
	return out, nil
}

func (a *SchedulerAdapter) ListSchedulableProperties(ctx context.Context, tenantID string) ([]string, error) {
	id, err := uuid.Parse(tenantID)
	if err != nil {
		return nil, fmt.Errorf("parsing tenant id %q: %w", tenantID, err)
	}

	properties, err := a.store.ListPropertiesByTenant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing properties for tenant: %w", err)
	}

	var out []string
	for _, p := range properties {
		if p.Status != "active" {
			continue
		}
		out = append(out, p.ID.String())
	}
	return out, nil
}

func (a *SchedulerAdapter) RecordTenantOutcome(ctx context.Context, tenantID string, success bool, at time.Time) error {
	id, err := uuid.Parse(tenantID)
	if err != nil {
		return fmt.Errorf("parsing tenant id %q: %w", tenantID, err)
	}
	return a.store.RecordSchedulerOutcome(ctx, id, success, at)
}
