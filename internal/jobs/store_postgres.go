package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	id "creditflow/pkg/domain"
	"creditflow/pkg/platform/sentinel"
)

// PostgresStore keeps jobs in the jobs table. Claiming uses
// FOR UPDATE SKIP LOCKED so concurrent workers never share a job.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const jobColumns = `id, job_type, payload, status, attempts, max_attempts, COALESCE(last_error, ''), run_at, started_at, finished_at, created_at`

func (s *PostgresStore) Enqueue(ctx context.Context, job *Job) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO jobs (id, job_type, payload, status, attempts, max_attempts, run_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(job.ID), job.Type, []byte(job.Payload), string(job.Status),
		job.Attempts, job.MaxAttempts, job.RunAt, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *PostgresStore) Claim(ctx context.Context, now time.Time) (*Job, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE jobs
		SET status = 'running', attempts = attempts + 1, started_at = $1
		WHERE id = (
			SELECT id FROM jobs
			WHERE status = 'queued' AND run_at <= $1
			ORDER BY run_at, created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns, now)

	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoJob
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) Complete(ctx context.Context, lease Lease, at time.Time) error {
	return s.exec(ctx, "complete job", lease,
		`UPDATE jobs SET status = 'completed', finished_at = $3
		WHERE id = $1 AND status = 'running' AND started_at = $2`,
		at)
}

func (s *PostgresStore) Retry(ctx context.Context, lease Lease, runAt time.Time, lastErr string) error {
	return s.exec(ctx, "retry job", lease,
		`UPDATE jobs SET status = 'queued', run_at = $3, last_error = $4, started_at = NULL
		WHERE id = $1 AND status = 'running' AND started_at = $2`,
		runAt, lastErr)
}

func (s *PostgresStore) Fail(ctx context.Context, lease Lease, at time.Time, lastErr string) error {
	return s.exec(ctx, "fail job", lease,
		`UPDATE jobs SET status = 'failed', finished_at = $3, last_error = $4
		WHERE id = $1 AND status = 'running' AND started_at = $2`,
		at, lastErr)
}

func (s *PostgresStore) RequeueStale(ctx context.Context, cutoff, now time.Time) (StaleSweep, error) {
	var sweep StaleSweep
	err := s.pool.QueryRow(ctx, `
		WITH swept AS (
			UPDATE jobs SET
				status      = CASE WHEN attempts >= max_attempts THEN 'failed' ELSE 'queued' END,
				last_error  = CASE WHEN attempts >= max_attempts THEN $3 ELSE last_error END,
				finished_at = CASE WHEN attempts >= max_attempts THEN $2 ELSE finished_at END,
				started_at  = CASE WHEN attempts >= max_attempts THEN started_at ELSE NULL END
			WHERE status = 'running' AND started_at < $1
			RETURNING status
		)
		SELECT
			COUNT(*) FILTER (WHERE status = 'queued'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM swept`,
		cutoff, now, LeaseExpiredError,
	).Scan(&sweep.Requeued, &sweep.Failed)
	if err != nil {
		return StaleSweep{}, fmt.Errorf("requeue stale jobs: %w", err)
	}
	return sweep, nil
}

func (s *PostgresStore) Get(ctx context.Context, jobID id.JobID) (*Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, uuid.UUID(jobID))
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// exec runs a lease-fenced update. $1 and $2 are the lease, args follow.
func (s *PostgresStore) exec(ctx context.Context, op string, lease Lease, query string, args ...any) error {
	args = append([]any{uuid.UUID(lease.JobID), lease.StartedAt}, args...)
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1)`, args[0]).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, ErrLeaseLost)
}

func scanJob(row pgx.Row) (*Job, error) {
	var (
		jobID   uuid.UUID
		status  string
		payload []byte
		job     Job
	)
	if err := row.Scan(&jobID, &job.Type, &payload, &status, &job.Attempts, &job.MaxAttempts,
		&job.LastError, &job.RunAt, &job.StartedAt, &job.FinishedAt, &job.CreatedAt); err != nil {
		return nil, err
	}
	job.ID = id.JobID(jobID)
	job.Status = Status(status)
	job.Payload = payload
	return &job, nil
}
