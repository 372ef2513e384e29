// Package jobs is a durable, at-least-once job queue with per-type retry
// budgets and a pool of workers.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	id "creditflow/pkg/domain"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is one unit of queued work. Attempts counts claims, so the first run
// has Attempts == 1.
type Job struct {
	ID          id.JobID
	Type        string
	Payload     json.RawMessage
	Status      Status
	Attempts    int
	MaxAttempts int
	LastError   string
	RunAt       time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
	CreatedAt   time.Time
}

// Lease identifies one claim of a job. A claim is fenced by the start time
// the store recorded for it.
type Lease struct {
	JobID     id.JobID
	StartedAt time.Time
}

// Lease returns the lease of a claimed job.
func (j *Job) Lease() Lease {
	l := Lease{JobID: j.ID}
	if j.StartedAt != nil {
		l.StartedAt = *j.StartedAt
	}
	return l
}

// StaleSweep counts what RequeueStale did with expired leases.
type StaleSweep struct {
	Requeued int
	Failed   int
}

// LeaseExpiredError is recorded on jobs whose final attempt never reported back.
const LeaseExpiredError = "lease expired after final attempt"

var (
	// ErrNoJob is returned by Store.Claim when nothing is ready to run.
	ErrNoJob = errors.New("no job ready")
	// ErrLeaseLost is returned when a job is no longer running under the
	// given lease, because the reaper requeued it and it was claimed again.
	ErrLeaseLost = errors.New("job lease lost")
)

// Store persists jobs. Claim must hand a ready job to exactly one caller.
// Complete, Retry and Fail only apply while the job is still running under
// the lease; otherwise they return ErrLeaseLost.
type Store interface {
	Enqueue(ctx context.Context, job *Job) error
	Claim(ctx context.Context, now time.Time) (*Job, error)
	Complete(ctx context.Context, lease Lease, at time.Time) error
	Retry(ctx context.Context, lease Lease, runAt time.Time, lastErr string) error
	Fail(ctx context.Context, lease Lease, at time.Time, lastErr string) error
	// RequeueStale handles jobs running since before cutoff: those with
	// attempts left go back to the queue, the rest fail with
	// LeaseExpiredError at now.
	RequeueStale(ctx context.Context, cutoff, now time.Time) (StaleSweep, error)
	Get(ctx context.Context, jobID id.JobID) (*Job, error)
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
