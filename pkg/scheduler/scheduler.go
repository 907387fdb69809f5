// Package scheduler implements the C6 per-tenant auto-pricing scheduler: an
// hourly cluster-wide tick that fans out to eligible tenants, processing a
// bounded number of tenants at once and each tenant's properties in turn.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/devco/pricingcore/internal/telemetry"
)

// TenantState is the scheduler's bookkeeping for one tenant, persisted
// between ticks so eligibility and retry behavior survive a restart.
type TenantState struct {
	TenantID           string
	Timezone           *time.Location
	LastAttempt        time.Time
	LastSuccessfulRun  time.Time
	FailedAttempts     int
}

// IsEligible reports whether a tenant should be processed on this tick: at
// local midnight, or after a retry backoff of 1 hour per failed attempt
// following a prior failure.
func (s TenantState) IsEligible(now time.Time) bool {
	local := now.In(s.Timezone)
	atLocalMidnight := local.Hour() == 0 && local.Format("2006-01-02") != s.LastSuccessfulRun.In(s.Timezone).Format("2006-01-02")

	if atLocalMidnight {
		return true
	}

	if s.FailedAttempts > 0 {
		backoff := time.Duration(s.FailedAttempts) * time.Hour
		return now.Sub(s.LastAttempt) >= backoff
	}

	return false
}

// PropertyPricer reprices a single property; implemented by the wiring
// between the scheduler and pkg/pricing + internal/store for a live run.
type PropertyPricer interface {
	RepriceProperty(ctx context.Context, propertyID string) error
}

// TenantLister enumerates the tenants and their per-tenant scheduling state
// as of the current tick.
type TenantLister interface {
	ListTenantStates(ctx context.Context) ([]TenantState, error)
	ListSchedulableProperties(ctx context.Context, tenantID string) ([]string, error)
	RecordTenantOutcome(ctx context.Context, tenantID string, success bool, at time.Time) error
}

// Scheduler runs the hourly tick.
type Scheduler struct {
	lister          TenantLister
	pricer          PropertyPricer
	logger          *slog.Logger
	workers         int64
	propertyTimeout time.Duration
}

func New(lister TenantLister, pricer PropertyPricer, logger *slog.Logger, workers int, propertyTimeout time.Duration) *Scheduler {
	if workers <= 0 {
		workers = 8
	}
	if propertyTimeout <= 0 {
		propertyTimeout = 5 * time.Minute
	}
	return &Scheduler{lister: lister, pricer: pricer, logger: logger, workers: int64(workers), propertyTimeout: propertyTimeout}
}

// RunForever ticks hourly until ctx is cancelled.
func (s *Scheduler) RunForever(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = time.Hour
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick runs one scheduling pass: each eligible tenant is processed in its
// own goroutine that holds one of the pool's worker slots, so at most
// workers tenants run at once and one slow tenant occupies a single slot.
// A tenant's properties are repriced one after another, each under the
// per-property timeout. Tenants are not assigned to slots by tenant id;
// whichever goroutine acquires a free slot first runs next.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	telemetry.SchedulerTicksTotal.Inc()

	states, err := s.lister.ListTenantStates(ctx)
	if err != nil {
		s.logger.Error("listing tenant scheduler states", "error", err)
		return
	}

	sem := semaphore.NewWeighted(s.workers)
	var wg sync.WaitGroup

	for _, state := range states {
		if !state.IsEligible(now) {
			continue
		}

		state := state
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)
			s.processTenant(ctx, state, now)
		}()
	}

	wg.Wait()
}

func (s *Scheduler) processTenant(ctx context.Context, state TenantState, now time.Time) {
	propertyIDs, err := s.lister.ListSchedulableProperties(ctx, state.TenantID)
	if err != nil {
		s.recordOutcome(ctx, state.TenantID, false, now)
		s.logger.Error("listing schedulable properties", "error", err, "tenant_id", state.TenantID)
		return
	}

	success := true
	for _, propertyID := range propertyIDs {
		propertyCtx, cancel := context.WithTimeout(ctx, s.propertyTimeout)
		err := s.pricer.RepriceProperty(propertyCtx, propertyID)
		cancel()
		if err != nil {
			success = false
			s.logger.Error("repricing property", "error", err, "tenant_id", state.TenantID, "property_id", propertyID)
		}
	}

	s.recordOutcome(ctx, state.TenantID, success, now)
}

func (s *Scheduler) recordOutcome(ctx context.Context, tenantID string, success bool, now time.Time) {
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	telemetry.SchedulerTenantOutcomeTotal.WithLabelValues(outcome).Inc()

	if err := s.lister.RecordTenantOutcome(ctx, tenantID, success, now); err != nil {
		s.logger.Error("recording tenant scheduler outcome", "error", err, "tenant_id", tenantID)
	}
}
