// Package webhook applies bank-data callbacks from the credit bureaus.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"creditflow/internal/audit"
	"creditflow/internal/credit/models"
	"creditflow/internal/credit/ports"
	"creditflow/internal/credit/service"
	id "creditflow/pkg/domain"
	dErrors "creditflow/pkg/domain-errors"
	"creditflow/pkg/platform/sentinel"
	"creditflow/pkg/platform/tx"
	"creditflow/pkg/requestcontext"
)

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Envelope is the callback body every provider sends.
type Envelope struct {
	ExternalRequestID string         `json:"external_request_id" validate:"required,max=128"`
	Status            string         `json:"status" validate:"required,oneof=SUCCESS FAILED"`
	Data              map[string]any `json:"data" validate:"required_if=Status SUCCESS"`
	Error             *EnvelopeError `json:"error,omitempty"`
}

type EnvelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Outcome says what a callback changed.
type Outcome string

const (
	// OutcomeAdvanced: payload stored and the request moved to EVALUATING.
	OutcomeAdvanced Outcome = "advanced"
	// OutcomeStored: payload stored ahead of PENDING_FOR_BANK_DATA.
	OutcomeStored Outcome = "stored"
	// OutcomeFailureRecorded: provider reported a failure.
	OutcomeFailureRecorded Outcome = "failure_recorded"
	// OutcomeIgnored: the request is past the point where bank data matters.
	OutcomeIgnored Outcome = "ignored"
)

type Result struct {
	CreditRequestID id.CreditRequestID
	Outcome         Outcome
}

// Service validates callbacks and records them against the banking info
// they correlate with.
type Service struct {
	countries service.CountryResolver
	requests  ports.RequestStore
	banking   ports.BankingStore
	statuses  *service.Statuses
	audit     *audit.Writer
	tx        tx.Runner
	validate  *validator.Validate
	logger    *slog.Logger
	metrics   *Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		if runner != nil {
			s.tx = runner
		}
	}
}

func NewService(countries service.CountryResolver, requests ports.RequestStore, banking ports.BankingStore, statuses *service.Statuses, auditWriter *audit.Writer, opts ...Option) (*Service, error) {
	switch {
	case countries == nil:
		return nil, errors.New("country registry is required")
	case requests == nil:
		return nil, errors.New("request store is required")
	case banking == nil:
		return nil, errors.New("banking store is required")
	case statuses == nil:
		return nil, errors.New("statuses are required")
	case auditWriter == nil:
		return nil, errors.New("audit writer is required")
	}
	s := &Service{
		countries: countries,
		requests:  requests,
		banking:   banking,
		statuses:  statuses,
		audit:     auditWriter,
		tx:        tx.NoopRunner{},
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Authenticate checks the callback signature against the country's secret.
func (s *Service) Authenticate(code id.CountryCode, body []byte, signature string) error {
	bundle, err := s.countries.Get(code)
	if err != nil {
		return err
	}
	return VerifySignature(bundle.WebhookSecret, body, signature)
}

// Receive applies one callback. SUCCESS stores the payload and, when the
// request is waiting for it, advances to EVALUATING. FAILED records the
// provider error on the banking info and leaves the status alone.
func (s *Service) Receive(ctx context.Context, code id.CountryCode, env Envelope) (Result, error) {
	result, err := s.receive(ctx, code, env)
	if err != nil {
		s.metrics.IncRejected(string(dErrors.CodeOf(err)))
		return Result{}, err
	}
	s.metrics.IncReceived(string(code), result.Outcome)
	return result, nil
}

func (s *Service) receive(ctx context.Context, code id.CountryCode, env Envelope) (Result, error) {
	if err := s.validate.Struct(env); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeValidation, "invalid webhook envelope")
	}
	bundle, err := s.countries.Get(code)
	if err != nil {
		return Result{}, err
	}

	info, err := s.banking.FindByExternalRequestID(ctx, env.ExternalRequestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Result{}, dErrors.Wrap(err, dErrors.CodeNotFound, "unknown external request id").
			WithDetail("external_request_id", env.ExternalRequestID)
	}
	if err != nil {
		return Result{}, fmt.Errorf("load banking info: %w", err)
	}

	req, err := s.requests.FindByID(ctx, info.CreditRequestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Result{}, dErrors.Wrap(err, dErrors.CodeNotFound, "credit request not found")
	}
	if err != nil {
		return Result{}, fmt.Errorf("load credit request: %w", err)
	}
	if req.CountryCode != code {
		// Do not reveal that the id exists under another country.
		return Result{}, dErrors.New(dErrors.CodeNotFound, "unknown external request id").
			WithDetail("external_request_id", env.ExternalRequestID)
	}

	current, err := s.statuses.FindByID(ctx, req.StatusID)
	if err != nil {
		return Result{}, err
	}
	if current.Code != models.StatusCreated && current.Code != models.StatusPendingForBankData {
		s.logger.InfoContext(ctx, "bank data callback ignored",
			"credit_request_id", req.ID.String(),
			"status_code", string(current.Code),
			"request_id", requestcontext.RequestID(ctx),
		)
		return Result{CreditRequestID: req.ID, Outcome: OutcomeIgnored}, nil
	}

	if env.Status == StatusFailed {
		return s.recordFailure(ctx, req, info, env)
	}

	if err := bundle.Payload.Validate(env.Data); err != nil {
		return Result{}, err
	}
	raw, err := json.Marshal(env.Data)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeValidation, "financial data is not valid JSON")
	}

	outcome := OutcomeStored
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		info.FetchStatus = models.FetchSuccess
		info.FinancialData = raw
		info.ErrorMessage = ""
		info.UpdatedAt = requestcontext.Now(ctx)
		if err := s.banking.Upsert(ctx, info); err != nil {
			return fmt.Errorf("save banking info: %w", err)
		}
		if current.Code != models.StatusPendingForBankData {
			return nil
		}
		tr, err := s.statuses.Advance(ctx, req, models.StatusEvaluating,
			fmt.Sprintf("Bank data received from %s", info.ProviderName))
		if err != nil {
			return err
		}
		outcome = OutcomeAdvanced

		s.audit.Record(ctx, audit.Entry{
			CreditRequestID: req.ID,
			From:            &tr.From.ID,
			To:              tr.To.ID,
			TriggeredBy:     models.TriggerWebhook,
			Reason:          fmt.Sprintf("Bank data received from %s", info.ProviderName),
			Metadata: map[string]any{
				"country":             string(code),
				"provider":            info.ProviderName,
				"external_request_id": env.ExternalRequestID,
				"from_status":         tr.From.Name,
				"to_status":           tr.To.Name,
			},
		})
		return nil
	})
	if dErrors.HasCode(err, dErrors.CodeConflict) {
		// The pending strategy saw the stored payload first and advanced.
		return Result{CreditRequestID: req.ID, Outcome: OutcomeStored}, nil
	}
	if err != nil {
		return Result{}, err
	}

	s.logger.InfoContext(ctx, "bank data received",
		"credit_request_id", req.ID.String(),
		"provider", info.ProviderName,
		"outcome", string(outcome),
		"client_ip", requestcontext.ClientIP(ctx),
		"user_agent", requestcontext.UserAgent(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	return Result{CreditRequestID: req.ID, Outcome: outcome}, nil
}

func (s *Service) recordFailure(ctx context.Context, req *models.CreditRequest, info *models.BankingInfo, env Envelope) (Result, error) {
	message := "provider reported a failure"
	errorCode := ""
	if env.Error != nil {
		errorCode = env.Error.Code
		if env.Error.Message != "" {
			message = env.Error.Message
		}
	}

	info.FetchStatus = models.FetchFailed
	info.ErrorMessage = message
	info.RetryCount++
	info.UpdatedAt = requestcontext.Now(ctx)
	if err := s.banking.Upsert(ctx, info); err != nil {
		return Result{}, fmt.Errorf("save banking info: %w", err)
	}

	s.logger.WarnContext(ctx, "provider reported bank data failure",
		"credit_request_id", req.ID.String(),
		"provider", info.ProviderName,
		"error_code", errorCode,
		"retry_count", info.RetryCount,
		"request_id", requestcontext.RequestID(ctx),
	)
	return Result{CreditRequestID: req.ID, Outcome: OutcomeFailureRecorded}, nil
}
