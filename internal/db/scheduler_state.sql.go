package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const schedulerStateColumns = `tenant_id, last_attempt, last_successful_run, failed_attempts, updated_at`

func scanSchedulerState(row interface{ Scan(dest ...any) error }) (SchedulerState, error) {
	var s SchedulerState
	err := row.Scan(&s.TenantID, &s.LastAttempt, &s.LastSuccessfulRun, &s.FailedAttempts, &s.UpdatedAt)
	return s, err
}

// listSchedulerStates left-joins every tenant against its scheduler_state
// row, which may not exist yet for a tenant the scheduler has never ticked.
const listSchedulerStates = `SELECT t.id, s.last_attempt, s.last_successful_run, COALESCE(s.failed_attempts, 0), COALESCE(s.updated_at, t.created_at)
	FROM tenants t LEFT JOIN scheduler_state s ON s.tenant_id = t.id`

func (q *Queries) ListSchedulerStates(ctx context.Context) ([]SchedulerState, error) {
	rows, err := q.db.Query(ctx, listSchedulerStates)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SchedulerState
	for rows.Next() {
		s, err := scanSchedulerState(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const recordSchedulerOutcome = `INSERT INTO scheduler_state (tenant_id, last_attempt, last_successful_run, failed_attempts, updated_at)
	VALUES ($1, $2, CASE WHEN $3 THEN $2 ELSE NULL END, CASE WHEN $3 THEN 0 ELSE 1 END, now())
	ON CONFLICT (tenant_id) DO UPDATE SET
		last_attempt = $2,
		last_successful_run = CASE WHEN $3 THEN $2 ELSE scheduler_state.last_successful_run END,
		failed_attempts = CASE WHEN $3 THEN 0 ELSE scheduler_state.failed_attempts + 1 END,
		updated_at = now()`

func (q *Queries) RecordSchedulerOutcome(ctx context.Context, tenantID uuid.UUID, success bool, at time.Time) error {
	_, err := q.db.Exec(ctx, recordSchedulerOutcome, tenantID, at, success)
	return err
}
