package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"creditflow/internal/credit/models"
	"creditflow/internal/credit/ports"
	"creditflow/internal/credit/service"
	"creditflow/internal/jobs"
	id "creditflow/pkg/domain"
	dErrors "creditflow/pkg/domain-errors"
	"creditflow/pkg/platform/sentinel"
)

// TransitionJobType is the job that runs the strategy for a request's
// current status.
const TransitionJobType = "credit_request.transition"

// TransitionPayload pins the status the request was in when the job was
// enqueued.
type TransitionPayload struct {
	CreditRequestID    id.CreditRequestID `json:"creditRequestId"`
	ExpectedStatusID   id.StatusID        `json:"expectedStatusId"`
	ExpectedStatusCode models.StatusCode  `json:"expectedStatusCode"`
}

// TransitionHandler executes transition jobs. Deliveries are at least
// once; a job whose expected status no longer matches the stored one is a
// no-op.
type TransitionHandler struct {
	requests ports.RequestStore
	statuses *service.Statuses
	registry *Registry
	logger   *slog.Logger
	metrics  *Metrics
}

type HandlerOption func(*TransitionHandler)

func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *TransitionHandler) {
		h.logger = logger
	}
}

func WithHandlerMetrics(m *Metrics) HandlerOption {
	return func(h *TransitionHandler) {
		h.metrics = m
	}
}

func NewTransitionHandler(requests ports.RequestStore, statuses *service.Statuses, registry *Registry, opts ...HandlerOption) (*TransitionHandler, error) {
	if requests == nil {
		return nil, errors.New("request store is required")
	}
	if statuses == nil {
		return nil, errors.New("statuses are required")
	}
	if registry == nil {
		return nil, errors.New("strategy registry is required")
	}
	h := &TransitionHandler{
		requests: requests,
		statuses: statuses,
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Register binds the handler to the dispatcher with the transition retry
// policy.
func (h *TransitionHandler) Register(d *jobs.Dispatcher, retries int, backoff time.Duration) error {
	return d.Register(TransitionJobType, h.Handle, jobs.WithMaxRetries(retries), jobs.WithBackoff(backoff))
}

func (h *TransitionHandler) Handle(ctx context.Context, job *jobs.Job) error {
	var payload TransitionPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return jobs.Permanent(dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed transition payload"))
	}
	if payload.CreditRequestID.IsNil() || payload.ExpectedStatusID.IsNil() {
		return jobs.Permanent(dErrors.New(dErrors.CodeInvalidInput, "transition payload is missing ids"))
	}

	req, err := h.requests.FindByID(ctx, payload.CreditRequestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return jobs.Permanent(dErrors.Wrap(err, dErrors.CodeNotFound, "credit request not found"))
	}
	if err != nil {
		return fmt.Errorf("load credit request: %w", err)
	}

	if req.StatusID != payload.ExpectedStatusID {
		h.metrics.IncStaleJob()
		h.logger.InfoContext(ctx, "stale transition job skipped",
			"job_id", job.ID.String(),
			"credit_request_id", req.ID.String(),
			"expected_status_code", string(payload.ExpectedStatusCode),
		)
		return nil
	}

	status, err := h.statuses.FindByID(ctx, req.StatusID)
	if err != nil {
		return h.classify(ctx, req, err)
	}
	if !h.registry.Has(status.Code) {
		h.logger.DebugContext(ctx, "no strategy for status",
			"credit_request_id", req.ID.String(),
			"status_code", string(status.Code),
		)
		return nil
	}
	strategy, err := h.registry.Get(status.Code)
	if err != nil {
		return h.classify(ctx, req, err)
	}

	return h.classify(ctx, req, strategy.Execute(ctx, req))
}

// classify maps strategy errors onto the job outcome.
func (h *TransitionHandler) classify(ctx context.Context, req *models.CreditRequest, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrConflict) || dErrors.HasCode(err, dErrors.CodeConflict):
		h.metrics.IncConflict()
		h.logger.InfoContext(ctx, "transition lost race, request already advanced",
			"credit_request_id", req.ID.String(),
		)
		return nil
	case dErrors.HasCode(err, dErrors.CodeNotFound),
		dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition),
		dErrors.HasCode(err, dErrors.CodeCountryNotSupported),
		dErrors.HasCode(err, dErrors.CodeInvalidInput):
		return jobs.Permanent(err)
	default:
		return err
	}
}
