//go:build integration

package jobs_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"creditflow/internal/jobs"
	id "creditflow/pkg/domain"
	"creditflow/pkg/platform/sentinel"
	"creditflow/pkg/testutil/containers"
)

type PostgresJobStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *jobs.PostgresStore
	now      time.Time
}

func TestPostgresJobStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresJobStoreSuite))
}

func (s *PostgresJobStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = jobs.NewPostgresStore(s.postgres.Pool)
}

func (s *PostgresJobStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "jobs"))
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresJobStoreSuite) enqueue(runAt time.Time) *jobs.Job {
	job := &jobs.Job{
		ID:          id.NewJobID(),
		Type:        "credit_request.transition",
		Payload:     json.RawMessage(`{"creditRequestId":"x"}`),
		Status:      jobs.StatusQueued,
		MaxAttempts: 4,
		RunAt:       runAt,
		CreatedAt:   s.now,
	}
	s.Require().NoError(s.store.Enqueue(context.Background(), job))
	return job
}

func (s *PostgresJobStoreSuite) TestClaimLifecycle() {
	ctx := context.Background()
	queued := s.enqueue(s.now)
	s.enqueue(s.now.Add(time.Hour))

	claimed, err := s.store.Claim(ctx, s.now)
	s.Require().NoError(err)
	s.Equal(queued.ID, claimed.ID)
	s.Equal(jobs.StatusRunning, claimed.Status)
	s.Equal(1, claimed.Attempts)
	s.JSONEq(`{"creditRequestId":"x"}`, string(claimed.Payload))

	_, err = s.store.Claim(ctx, s.now)
	s.ErrorIs(err, jobs.ErrNoJob, "the delayed job is not ready yet")

	s.Require().NoError(s.store.Retry(ctx, claimed.Lease(), s.now.Add(time.Minute), "provider timeout"))
	retried, err := s.store.Get(ctx, claimed.ID)
	s.Require().NoError(err)
	s.Equal(jobs.StatusQueued, retried.Status)
	s.Equal("provider timeout", retried.LastError)
	s.Nil(retried.StartedAt)

	again, err := s.store.Claim(ctx, s.now.Add(time.Minute))
	s.Require().NoError(err)
	s.Equal(2, again.Attempts)

	err = s.store.Complete(ctx, claimed.Lease(), s.now.Add(2*time.Minute))
	s.ErrorIs(err, jobs.ErrLeaseLost, "the first claim no longer owns the job")

	s.Require().NoError(s.store.Complete(ctx, again.Lease(), s.now.Add(2*time.Minute)))
	done, err := s.store.Get(ctx, again.ID)
	s.Require().NoError(err)
	s.Equal(jobs.StatusCompleted, done.Status)
	s.NotNil(done.FinishedAt)

	err = s.store.Fail(ctx, jobs.Lease{JobID: id.NewJobID(), StartedAt: s.now}, s.now, "gone")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestClaim_SkipLocked verifies concurrent claimers never share a job.
func (s *PostgresJobStoreSuite) TestClaim_SkipLocked() {
	const total = 30
	for i := 0; i < total; i++ {
		s.enqueue(s.now)
	}

	var (
		mu      sync.Mutex
		claimed = make(map[id.JobID]int)
		wg      sync.WaitGroup
	)
	for w := 0; w < 6; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				job, err := s.store.Claim(context.Background(), s.now)
				if errors.Is(err, jobs.ErrNoJob) {
					return
				}
				if err != nil {
					s.T().Errorf("claim: %v", err)
					return
				}
				mu.Lock()
				claimed[job.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Len(claimed, total)
	for jobID, n := range claimed {
		s.Equal(1, n, "job %s claimed more than once", jobID)
	}
}

func (s *PostgresJobStoreSuite) TestRequeueStale() {
	ctx := context.Background()
	s.enqueue(s.now)
	s.enqueue(s.now)
	lastTry := &jobs.Job{
		ID:          id.NewJobID(),
		Type:        "credit_request.transition",
		Payload:     json.RawMessage(`{}`),
		Status:      jobs.StatusQueued,
		MaxAttempts: 1,
		RunAt:       s.now.Add(-time.Second),
		CreatedAt:   s.now,
	}
	s.Require().NoError(s.store.Enqueue(ctx, lastTry))

	first, err := s.store.Claim(ctx, s.now)
	s.Require().NoError(err)
	s.Equal(lastTry.ID, first.ID)
	_, err = s.store.Claim(ctx, s.now)
	s.Require().NoError(err)
	fresh, err := s.store.Claim(ctx, s.now.Add(10*time.Minute))
	s.Require().NoError(err)

	sweepAt := s.now.Add(6 * time.Minute)
	sweep, err := s.store.RequeueStale(ctx, s.now.Add(5*time.Minute), sweepAt)
	s.Require().NoError(err)
	s.Equal(jobs.StaleSweep{Requeued: 1, Failed: 1}, sweep)

	still, err := s.store.Get(ctx, fresh.ID)
	s.Require().NoError(err)
	s.Equal(jobs.StatusRunning, still.Status)

	failed, err := s.store.Get(ctx, lastTry.ID)
	s.Require().NoError(err)
	s.Equal(jobs.StatusFailed, failed.Status)
	s.Equal(jobs.LeaseExpiredError, failed.LastError)
	s.Require().NotNil(failed.FinishedAt)
	s.True(failed.FinishedAt.Equal(sweepAt))

	err = s.store.Complete(ctx, first.Lease(), sweepAt)
	s.ErrorIs(err, jobs.ErrLeaseLost, "a late worker cannot revive a swept job")
}

func (s *PostgresJobStoreSuite) TestDispatcherOnPostgres() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher, err := jobs.NewDispatcher(s.store, jobs.WithPollInterval(10*time.Millisecond))
	s.Require().NoError(err)

	done := make(chan string, 1)
	s.Require().NoError(dispatcher.Register("echo", func(_ context.Context, job *jobs.Job) error {
		var payload map[string]string
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return jobs.Permanent(err)
		}
		done <- payload["msg"]
		return nil
	}))
	go func() { _ = dispatcher.Start(ctx) }()

	jobID, err := dispatcher.Emit(ctx, "echo", map[string]string{"msg": "hola"})
	s.Require().NoError(err)

	select {
	case msg := <-done:
		s.Equal("hola", msg)
	case <-time.After(5 * time.Second):
		s.FailNow("job was never handled")
	}
	s.Eventually(func() bool {
		job, err := s.store.Get(context.Background(), jobID)
		return err == nil && job.Status == jobs.StatusCompleted
	}, 5*time.Second, 20*time.Millisecond)
}
