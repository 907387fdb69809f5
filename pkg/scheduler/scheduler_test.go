package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeLister struct {
	mu       sync.Mutex
	states   []TenantState
	props    map[string][]string
	outcomes map[string]bool
	failListing bool
}

func (f *fakeLister) ListTenantStates(ctx context.Context) ([]TenantState, error) {
	return f.states, nil
}

func (f *fakeLister) ListSchedulableProperties(ctx context.Context, tenantID string) ([]string, error) {
	if f.failListing {
		return nil, errors.New("boom")
	}
	return f.props[tenantID], nil
}

func (f *fakeLister) RecordTenantOutcome(ctx context.Context, tenantID string, success bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.outcomes == nil {
		f.outcomes = make(map[string]bool)
	}
	f.outcomes[tenantID] = success
	return nil
}

type fakePricer struct {
	mu       sync.Mutex
	repriced []string
	failFor  string
}

func (f *fakePricer) RepriceProperty(ctx context.Context, propertyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if propertyID == f.failFor {
		return errors.New("pricing failed")
	}
	f.repriced = append(f.repriced, propertyID)
	return nil
}

func TestTenantStateIsEligibleAtLocalMidnight(t *testing.T) {
	loc := time.UTC
	state := TenantState{Timezone: loc, LastSuccessfulRun: time.Date(2026, 7, 1, 0, 0, 0, 0, loc)}
	now := time.Date(2026, 7, 2, 0, 5, 0, 0, loc)

	if !state.IsEligible(now) {
		t.Fatal("expected tenant to be eligible at local midnight on a new day")
	}
}

func TestTenantStateNotEligibleMidday(t *testing.T) {
	loc := time.UTC
	state := TenantState{Timezone: loc, LastSuccessfulRun: time.Date(2026, 7, 1, 0, 0, 0, 0, loc)}
	now := time.Date(2026, 7, 1, 13, 0, 0, 0, loc)

	if state.IsEligible(now) {
		t.Fatal("expected tenant to not be eligible mid-day with no prior failure")
	}
}

func TestTenantStateRetryBackoffAfterFailure(t *testing.T) {
	loc := time.UTC
	lastAttempt := time.Date(2026, 7, 1, 10, 0, 0, 0, loc)
	state := TenantState{Timezone: loc, LastAttempt: lastAttempt, FailedAttempts: 2}

	tooSoon := lastAttempt.Add(90 * time.Minute)
	if state.IsEligible(tooSoon) {
		t.Fatal("expected tenant to not be eligible before the 2-hour backoff elapses")
	}

	dueNow := lastAttempt.Add(2 * time.Hour)
	if !state.IsEligible(dueNow) {
		t.Fatal("expected tenant to be eligible once the backoff has elapsed")
	}
}

func TestTickProcessesEligibleTenantsOnly(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 7, 2, 0, 5, 0, 0, loc)

	lister := &fakeLister{
		states: []TenantState{
			{TenantID: "eligible", Timezone: loc, LastSuccessfulRun: time.Date(2026, 7, 1, 0, 0, 0, 0, loc)},
			{TenantID: "not-eligible", Timezone: loc, LastSuccessfulRun: now},
		},
		props: map[string][]string{"eligible": {"p1", "p2"}},
	}
	pricer := &fakePricer{}

	s := New(lister, pricer, slog.Default(), 4, time.Second)
	s.Tick(context.Background(), now)

	if len(pricer.repriced) != 2 {
		t.Fatalf("expected 2 properties repriced, got %d: %v", len(pricer.repriced), pricer.repriced)
	}
	if _, ok := lister.outcomes["not-eligible"]; ok {
		t.Fatal("expected the ineligible tenant to not be processed at all")
	}
	if success := lister.outcomes["eligible"]; !success {
		t.Fatal("expected the eligible tenant's outcome to be recorded as success")
	}
}

func TestTickRecordsFailureWhenRepricingErrors(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 7, 2, 0, 5, 0, 0, loc)

	lister := &fakeLister{
		states: []TenantState{{TenantID: "t1", Timezone: loc, LastSuccessfulRun: time.Date(2026, 7, 1, 0, 0, 0, 0, loc)}},
		props:  map[string][]string{"t1": {"bad-property"}},
	}
	pricer := &fakePricer{failFor: "bad-property"}

	s := New(lister, pricer, slog.Default(), 4, time.Second)
	s.Tick(context.Background(), now)

	if success := lister.outcomes["t1"]; success {
		t.Fatal("expected tenant outcome to be recorded as failure")
	}
}
