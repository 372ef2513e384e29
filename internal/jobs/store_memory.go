package jobs

import (
	"context"
	"sync"
	"time"

	id "creditflow/pkg/domain"
	"creditflow/pkg/platform/sentinel"
)

// InMemoryStore is a process-local queue for tests and dev mode.
type InMemoryStore struct {
	mu   sync.Mutex
	jobs map[id.JobID]*Job
	// order keeps enqueue order for stable claiming.
	order []id.JobID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{jobs: make(map[id.JobID]*Job)}
}

func (s *InMemoryStore) Enqueue(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return sentinel.ErrAlreadyExists
	}
	stored := *job
	s.jobs[job.ID] = &stored
	s.order = append(s.order, job.ID)
	return nil
}

func (s *InMemoryStore) Claim(_ context.Context, now time.Time) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *Job
	for _, jobID := range s.order {
		j := s.jobs[jobID]
		if j.Status != StatusQueued || j.RunAt.After(now) {
			continue
		}
		if next == nil || j.RunAt.Before(next.RunAt) {
			next = j
		}
	}
	if next == nil {
		return nil, ErrNoJob
	}

	started := now
	next.Status = StatusRunning
	next.Attempts++
	next.StartedAt = &started
	claimed := *next
	return &claimed, nil
}

func (s *InMemoryStore) Complete(_ context.Context, lease Lease, at time.Time) error {
	return s.update(lease, func(j *Job) {
		j.Status = StatusCompleted
		j.FinishedAt = &at
	})
}

func (s *InMemoryStore) Retry(_ context.Context, lease Lease, runAt time.Time, lastErr string) error {
	return s.update(lease, func(j *Job) {
		j.Status = StatusQueued
		j.RunAt = runAt
		j.LastError = lastErr
		j.StartedAt = nil
	})
}

func (s *InMemoryStore) Fail(_ context.Context, lease Lease, at time.Time, lastErr string) error {
	return s.update(lease, func(j *Job) {
		j.Status = StatusFailed
		j.LastError = lastErr
		j.FinishedAt = &at
	})
}

func (s *InMemoryStore) RequeueStale(_ context.Context, cutoff, now time.Time) (StaleSweep, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sweep StaleSweep
	for _, j := range s.jobs {
		if j.Status != StatusRunning || j.StartedAt == nil || !j.StartedAt.Before(cutoff) {
			continue
		}
		if j.Attempts >= j.MaxAttempts {
			finished := now
			j.Status = StatusFailed
			j.LastError = LeaseExpiredError
			j.FinishedAt = &finished
			sweep.Failed++
			continue
		}
		j.Status = StatusQueued
		j.StartedAt = nil
		sweep.Requeued++
	}
	return sweep, nil
}

func (s *InMemoryStore) Get(_ context.Context, jobID id.JobID) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *j
	return &out, nil
}

// List returns a snapshot of every job in enqueue order.
func (s *InMemoryStore) List() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, 0, len(s.order))
	for _, jobID := range s.order {
		out = append(out, *s.jobs[jobID])
	}
	return out
}

func (s *InMemoryStore) update(lease Lease, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[lease.JobID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if j.Status != StatusRunning || j.StartedAt == nil || !j.StartedAt.Equal(lease.StartedAt) {
		return ErrLeaseLost
	}
	fn(j)
	return nil
}
