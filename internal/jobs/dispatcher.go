package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	id "creditflow/pkg/domain"
	dErrors "creditflow/pkg/domain-errors"
)

// Handler runs one job. Returning Permanent(err) fails the job without
// retrying; any other error is retried while the budget lasts.
type Handler func(ctx context.Context, job *Job) error

const (
	defaultWorkers      = 4
	defaultPollInterval = time.Second
	defaultStaleAfter   = 5 * time.Minute
	defaultBackoff      = 10 * time.Second
)

type registration struct {
	handler    Handler
	maxRetries int
	backoff    time.Duration
}

type RegisterOption func(*registration)

// WithMaxRetries sets how many times a failed job is retried after its
// first attempt.
func WithMaxRetries(n int) RegisterOption {
	return func(r *registration) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithBackoff sets the fixed delay before a retry.
func WithBackoff(d time.Duration) RegisterOption {
	return func(r *registration) {
		if d >= 0 {
			r.backoff = d
		}
	}
}

// Dispatcher routes jobs to handlers and runs the worker pool.
type Dispatcher struct {
	store        Store
	workers      int
	pollInterval time.Duration
	staleAfter   time.Duration
	logger       *slog.Logger
	metrics      *Metrics
	tracer       trace.Tracer
	now          func() time.Time
	wake         chan struct{}

	mu       sync.RWMutex
	handlers map[string]registration
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(d *Dispatcher) {
		if interval > 0 {
			d.pollInterval = interval
		}
	}
}

// WithStaleAfter sets how long a job may stay running before it is
// considered abandoned by a crashed worker.
func WithStaleAfter(lease time.Duration) Option {
	return func(d *Dispatcher) {
		if lease > 0 {
			d.staleAfter = lease
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

func NewDispatcher(store Store, opts ...Option) (*Dispatcher, error) {
	if store == nil {
		return nil, errors.New("job store is required")
	}
	d := &Dispatcher{
		store:        store,
		workers:      defaultWorkers,
		pollInterval: defaultPollInterval,
		staleAfter:   defaultStaleAfter,
		logger:       slog.Default(),
		tracer:       otel.Tracer("creditflow/jobs"),
		now:          time.Now,
		wake:         make(chan struct{}, 1),
		handlers:     make(map[string]registration),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Register binds a handler to a job type. Registering a type twice is an
// error.
func (d *Dispatcher) Register(jobType string, handler Handler, opts ...RegisterOption) error {
	if jobType == "" || handler == nil {
		return errors.New("job type and handler are required")
	}
	reg := registration{handler: handler, backoff: defaultBackoff}
	for _, opt := range opts {
		opt(&reg)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[jobType]; exists {
		return fmt.Errorf("job type %s already registered", jobType)
	}
	d.handlers[jobType] = reg
	return nil
}

func (d *Dispatcher) registration(jobType string) (registration, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	reg, ok := d.handlers[jobType]
	return reg, ok
}

// Emit enqueues a job for immediate execution.
func (d *Dispatcher) Emit(ctx context.Context, jobType string, payload any) (id.JobID, error) {
	reg, ok := d.registration(jobType)
	if !ok {
		return id.JobID{}, dErrors.New(dErrors.CodeJobNotRegistered,
			fmt.Sprintf("job type %s is not registered", jobType)).
			WithDetail("job_type", jobType)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return id.JobID{}, fmt.Errorf("encode %s payload: %w", jobType, err)
	}

	now := d.now()
	job := &Job{
		ID:          id.NewJobID(),
		Type:        jobType,
		Payload:     raw,
		Status:      StatusQueued,
		MaxAttempts: reg.maxRetries + 1,
		RunAt:       now,
		CreatedAt:   now,
	}
	if err := d.store.Enqueue(ctx, job); err != nil {
		return id.JobID{}, fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	if d.metrics != nil {
		d.metrics.IncEnqueued(jobType)
	}

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return job.ID, nil
}

// Start runs the worker pool and the stale-job reaper until ctx is done.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.InfoContext(ctx, "job dispatcher started", "workers", d.workers)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < d.workers; i++ {
		worker := i
		g.Go(func() error {
			d.work(ctx, worker)
			return nil
		})
	}
	g.Go(func() error {
		d.reap(ctx)
		return nil
	})

	err := g.Wait()
	d.logger.InfoContext(context.WithoutCancel(ctx), "job dispatcher stopped")
	return err
}

func (d *Dispatcher) work(ctx context.Context, worker int) {
	for ctx.Err() == nil {
		processed, err := d.ProcessNext(ctx)
		if err != nil && ctx.Err() == nil {
			d.logger.ErrorContext(ctx, "job processing error", "worker", worker, "error", err)
		}
		if processed {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-d.wake:
		case <-time.After(d.pollInterval):
		}
	}
}

func (d *Dispatcher) reap(ctx context.Context) {
	ticker := time.NewTicker(d.staleAfter / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.RequeueStale(ctx); err != nil && ctx.Err() == nil {
				d.logger.ErrorContext(ctx, "requeue stale jobs failed", "error", err)
			}
		}
	}
}

// RequeueStale sweeps jobs whose lease expired. Jobs with attempts left go
// back to the queue; jobs on their final attempt fail.
func (d *Dispatcher) RequeueStale(ctx context.Context) (StaleSweep, error) {
	now := d.now()
	sweep, err := d.store.RequeueStale(ctx, now.Add(-d.staleAfter), now)
	if err != nil {
		return StaleSweep{}, err
	}
	if sweep.Requeued > 0 {
		d.logger.WarnContext(ctx, "requeued stale jobs", "count", sweep.Requeued)
	}
	if sweep.Failed > 0 {
		d.logger.ErrorContext(ctx, "stale jobs failed on final attempt", "count", sweep.Failed)
	}
	if d.metrics != nil {
		d.metrics.AddRequeued(sweep.Requeued)
		d.metrics.AddLeaseExpired(sweep.Failed)
	}
	return sweep, nil
}

// ProcessNext claims and runs at most one ready job. It reports whether a
// job was claimed.
func (d *Dispatcher) ProcessNext(ctx context.Context) (bool, error) {
	job, err := d.store.Claim(ctx, d.now())
	if errors.Is(err, ErrNoJob) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	ctx, span := d.tracer.Start(ctx, "jobs.process", trace.WithAttributes(
		attribute.String("job.id", job.ID.String()),
		attribute.String("job.type", job.Type),
		attribute.Int("job.attempt", job.Attempts),
	))
	defer span.End()

	lease := job.Lease()
	if job.Attempts > job.MaxAttempts {
		msg := fmt.Sprintf("attempt %d exceeds budget of %d", job.Attempts, job.MaxAttempts)
		span.SetStatus(codes.Error, msg)
		d.logger.ErrorContext(ctx, "job exhausted retry budget", "job_id", job.ID.String(), "job_type", job.Type, "error", msg)
		return true, d.settle(ctx, job, "exhausted", d.store.Fail(ctx, lease, d.now(), msg))
	}

	reg, ok := d.registration(job.Type)
	if !ok {
		msg := fmt.Sprintf("no handler for job type %s", job.Type)
		span.SetStatus(codes.Error, msg)
		d.logger.ErrorContext(ctx, "job failed", "job_id", job.ID.String(), "job_type", job.Type, "error", msg)
		return true, d.settle(ctx, job, "failed", d.store.Fail(ctx, lease, d.now(), msg))
	}

	start := d.now()
	handlerErr := d.run(ctx, reg.handler, job)
	if d.metrics != nil {
		d.metrics.ObserveDuration(job.Type, d.now().Sub(start).Seconds())
	}

	if handlerErr == nil {
		return true, d.settle(ctx, job, "completed", d.store.Complete(ctx, lease, d.now()))
	}

	span.RecordError(handlerErr)
	span.SetStatus(codes.Error, "job handler failed")
	attrs := []any{
		"job_id", job.ID.String(),
		"job_type", job.Type,
		"attempt", job.Attempts,
		"max_attempts", job.MaxAttempts,
		"error", handlerErr,
	}

	switch {
	case IsPermanent(handlerErr):
		d.logger.ErrorContext(ctx, "job failed permanently", attrs...)
		return true, d.settle(ctx, job, "failed", d.store.Fail(ctx, lease, d.now(), handlerErr.Error()))
	case job.Attempts >= job.MaxAttempts:
		d.logger.ErrorContext(ctx, "job exhausted retry budget", attrs...)
		return true, d.settle(ctx, job, "exhausted", d.store.Fail(ctx, lease, d.now(), handlerErr.Error()))
	default:
		runAt := d.now().Add(reg.backoff)
		d.logger.WarnContext(ctx, "job failed, retry scheduled", append(attrs, "retry_at", runAt)...)
		return true, d.settle(ctx, job, "retried", d.store.Retry(ctx, lease, runAt, handlerErr.Error()))
	}
}

// settle records the outcome of a store update. Results for a claim the
// reaper already took back are dropped; the job's current owner reports
// instead.
func (d *Dispatcher) settle(ctx context.Context, job *Job, outcome string, err error) error {
	if errors.Is(err, ErrLeaseLost) {
		d.logger.WarnContext(ctx, "job lease lost, result discarded",
			"job_id", job.ID.String(), "job_type", job.Type, "attempt", job.Attempts)
		d.count(job.Type, "lease_lost")
		return nil
	}
	if err == nil {
		d.count(job.Type, outcome)
	}
	return err
}

func (d *Dispatcher) run(ctx context.Context, handler Handler, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "job handler panicked", "job_id", job.ID.String(), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("job handler panic: %v", r)
		}
	}()
	return handler(ctx, job)
}

func (d *Dispatcher) count(jobType, outcome string) {
	if d.metrics != nil {
		d.metrics.IncProcessed(jobType, outcome)
	}
}
