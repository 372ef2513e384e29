// Package notify turns persisted status changes into transition jobs and
// live updates.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"creditflow/internal/credit/models"
	"creditflow/internal/credit/ports"
	"creditflow/internal/credit/service"
	"creditflow/internal/workflow"
	id "creditflow/pkg/domain"
)

const defaultPublishTimeout = 2 * time.Second

// Emitter enqueues jobs. Satisfied by *jobs.Dispatcher.
type Emitter interface {
	Emit(ctx context.Context, jobType string, payload any) (id.JobID, error)
}

// StrategySet lists the statuses that have work attached.
type StrategySet interface {
	Codes() []models.StatusCode
}

// TransitionLookup finds the audit record behind a change.
type TransitionLookup interface {
	ListByCreditRequestID(ctx context.Context, requestID id.CreditRequestID) ([]models.StatusTransition, error)
}

// Bridge consumes a Source. Each change yields one transition job pinned to
// the new status and one live update.
type Bridge struct {
	source         Source
	emitter        Emitter
	requests       ports.RequestStore
	statuses       *service.Statuses
	strategies     StrategySet
	transitions    TransitionLookup
	publisher      Publisher
	publishTimeout time.Duration
	logger         *slog.Logger
	metrics        *Metrics
}

type Option func(*Bridge)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(b *Bridge) {
		b.metrics = m
	}
}

func WithPublisher(p Publisher) Option {
	return func(b *Bridge) {
		if p != nil {
			b.publisher = p
		}
	}
}

func WithTransitions(t TransitionLookup) Option {
	return func(b *Bridge) {
		b.transitions = t
	}
}

func WithPublishTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.publishTimeout = d
		}
	}
}

func NewBridge(source Source, emitter Emitter, requests ports.RequestStore, statuses *service.Statuses, strategies StrategySet, opts ...Option) (*Bridge, error) {
	switch {
	case source == nil:
		return nil, errors.New("change source is required")
	case emitter == nil:
		return nil, errors.New("job emitter is required")
	case requests == nil:
		return nil, errors.New("request store is required")
	case statuses == nil:
		return nil, errors.New("statuses are required")
	case strategies == nil:
		return nil, errors.New("strategy set is required")
	}
	b := &Bridge{
		source:         source,
		emitter:        emitter,
		requests:       requests,
		statuses:       statuses,
		strategies:     strategies,
		publisher:      NopPublisher{},
		publishTimeout: defaultPublishTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Run consumes the source until ctx is cancelled or the event channel closes.
func (b *Bridge) Run(ctx context.Context) error {
	events := b.source.Events()
	resyncs := b.source.Resyncs()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			_ = b.Handle(ctx, event)
		case <-resyncs:
			if _, err := b.Resync(ctx); err != nil && ctx.Err() == nil {
				b.logger.ErrorContext(ctx, "status resync failed", "error", err)
			}
		}
	}
}

// Handle emits the transition job for one change and publishes the live
// update. The update goes out even when the enqueue fails; the returned
// error reports the enqueue only.
func (b *Bridge) Handle(ctx context.Context, event models.StatusChangeEvent) error {
	b.metrics.IncEvent(string(event.StatusCode))

	emitErr := b.emit(ctx, workflow.TransitionPayload{
		CreditRequestID:    event.CreditRequestID,
		ExpectedStatusID:   event.ToStatusID,
		ExpectedStatusCode: event.StatusCode,
	})

	update := LiveUpdate{StatusChangeEvent: event, TransitionID: b.latestTransition(ctx, event)}
	pubCtx, cancel := context.WithTimeout(ctx, b.publishTimeout)
	defer cancel()
	if err := b.publisher.Publish(pubCtx, update); err != nil {
		b.logger.DebugContext(ctx, "live update not delivered",
			"credit_request_id", event.CreditRequestID.String(),
			"error", err,
		)
	}
	return emitErr
}

// Resync re-emits a job for every request sitting in a status with work
// attached. Duplicates are absorbed by the transition job's status guard.
func (b *Bridge) Resync(ctx context.Context) (int, error) {
	codes := b.strategies.Codes()
	statusIDs := make([]id.StatusID, 0, len(codes))
	codeByID := make(map[id.StatusID]models.StatusCode, len(codes))
	for _, code := range codes {
		st, err := b.statuses.GetByCode(ctx, code)
		if err != nil {
			return 0, err
		}
		statusIDs = append(statusIDs, st.ID)
		codeByID[st.ID] = code
	}

	requests, err := b.requests.ListByStatusIDs(ctx, statusIDs)
	if err != nil {
		return 0, err
	}

	emitted := 0
	var errs []error
	for _, req := range requests {
		err := b.emit(ctx, workflow.TransitionPayload{
			CreditRequestID:    req.ID,
			ExpectedStatusID:   req.StatusID,
			ExpectedStatusCode: codeByID[req.StatusID],
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		emitted++
	}

	b.metrics.ObserveResync(emitted)
	b.logger.InfoContext(ctx, "status resync re-emitted transition jobs",
		"pending_requests", len(requests),
		"emitted", emitted,
	)
	return emitted, errors.Join(errs...)
}

func (b *Bridge) emit(ctx context.Context, payload workflow.TransitionPayload) error {
	jobID, err := b.emitter.Emit(ctx, workflow.TransitionJobType, payload)
	if err != nil {
		b.metrics.IncEmitFailure()
		b.logger.ErrorContext(ctx, "transition job emit failed",
			"credit_request_id", payload.CreditRequestID.String(),
			"status_code", string(payload.ExpectedStatusCode),
			"error", err,
		)
		return err
	}
	b.metrics.IncJobEmitted()
	b.logger.DebugContext(ctx, "transition job emitted",
		"job_id", jobID.String(),
		"credit_request_id", payload.CreditRequestID.String(),
		"status_code", string(payload.ExpectedStatusCode),
	)
	return nil
}

// latestTransition finds the audit row written in the same transaction as
// the change. It is nil only when that fail-open append failed.
func (b *Bridge) latestTransition(ctx context.Context, event models.StatusChangeEvent) *id.TransitionID {
	if b.transitions == nil {
		return nil
	}
	trail, err := b.transitions.ListByCreditRequestID(ctx, event.CreditRequestID)
	if err != nil {
		b.logger.DebugContext(ctx, "transition lookup failed",
			"credit_request_id", event.CreditRequestID.String(),
			"error", err,
		)
		return nil
	}
	for i := len(trail) - 1; i >= 0; i-- {
		if trail[i].ToStatusID == event.ToStatusID {
			found := trail[i].ID
			return &found
		}
	}
	return nil
}
