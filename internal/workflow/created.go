package workflow

import (
	"context"
	"errors"
	"fmt"

	"creditflow/internal/audit"
	"creditflow/internal/bankdata"
	"creditflow/internal/country"
	"creditflow/internal/credit/models"
	"creditflow/internal/credit/service"
	id "creditflow/pkg/domain"
	"creditflow/pkg/platform/sentinel"
)

// CreatedStrategy starts the bureau lookup for a new request and moves it
// to PENDING_FOR_BANK_DATA, or to FAILED_FROM_PROVIDER when the bureau
// answers with a catchable error.
type CreatedStrategy struct {
	deps Deps
}

func NewCreatedStrategy(deps Deps) (*CreatedStrategy, error) {
	if err := deps.normalize(); err != nil {
		return nil, err
	}
	return &CreatedStrategy{deps: deps}, nil
}

func (s *CreatedStrategy) StatusCode() models.StatusCode {
	return models.StatusCreated
}

func (s *CreatedStrategy) Execute(ctx context.Context, req *models.CreditRequest) error {
	bundle, err := s.deps.Countries.Get(req.CountryCode)
	if err != nil {
		return err
	}

	result, err := bundle.Provider.FetchBankData(ctx, req.DocumentID, req.ID.String())
	if err != nil {
		pe, ok := bankdata.AsProviderError(err)
		if !ok || !pe.ShouldCatch {
			return err
		}
		return s.failFromProvider(ctx, req, bundle, pe)
	}

	now := s.deps.Now()
	var tr service.Transition
	// The status compare-and-set goes first so a worker that lost the race
	// never touches banking info, with or without a transaction.
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		tr, err = s.deps.Statuses.Advance(ctx, req, models.StatusPendingForBankData,
			fmt.Sprintf("Bank data requested from %s", result.ProviderName))
		if err != nil {
			return err
		}

		info, err := s.bankingFor(ctx, req.ID)
		if err != nil {
			return err
		}
		info.ExternalRequestID = result.ExternalRequestID
		info.ProviderName = result.ProviderName
		// A callback that raced ahead of this write already holds the payload.
		if info.FetchStatus != models.FetchSuccess {
			info.FetchStatus = result.FetchStatus
		}
		info.UpdatedAt = now
		if err := s.deps.Banking.Upsert(ctx, info); err != nil {
			return fmt.Errorf("save banking info: %w", err)
		}

		s.deps.Audit.Record(ctx, audit.Entry{
			CreditRequestID: req.ID,
			From:            &tr.From.ID,
			To:              tr.To.ID,
			TriggeredBy:     models.TriggerSystem,
			Reason:          fmt.Sprintf("Bank data requested from %s", result.ProviderName),
			Metadata: map[string]any{
				"country":             string(bundle.Code),
				"provider":            result.ProviderName,
				"from_status":         tr.From.Name,
				"to_status":           tr.To.Name,
				"external_request_id": result.ExternalRequestID,
			},
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.deps.Metrics.IncTransition(string(req.CountryCode), string(tr.From.Code), string(tr.To.Code))
	s.deps.Logger.InfoContext(ctx, "bank data requested",
		"credit_request_id", req.ID.String(),
		"provider", result.ProviderName,
		"external_request_id", result.ExternalRequestID,
	)
	return nil
}

func (s *CreatedStrategy) failFromProvider(ctx context.Context, req *models.CreditRequest, bundle country.Bundle, pe *bankdata.ProviderError) error {
	message := pe.Message
	if message == "" {
		message = pe.Error()
	}

	now := s.deps.Now()
	var tr service.Transition
	err := s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		tr, err = s.deps.Statuses.Advance(ctx, req, models.StatusFailedFromProvider, message)
		if err != nil {
			return err
		}

		info, err := s.bankingFor(ctx, req.ID)
		if err != nil {
			return err
		}
		info.ProviderName = pe.Provider
		info.FetchStatus = models.FetchFailed
		info.ErrorMessage = message
		info.UpdatedAt = now
		if err := s.deps.Banking.Upsert(ctx, info); err != nil {
			return fmt.Errorf("save banking info: %w", err)
		}

		s.deps.Audit.Record(ctx, audit.Entry{
			CreditRequestID: req.ID,
			From:            &tr.From.ID,
			To:              tr.To.ID,
			TriggeredBy:     models.TriggerProvider,
			Reason:          message,
			Metadata: map[string]any{
				"country":     string(bundle.Code),
				"provider":    pe.Provider,
				"error_code":  pe.Code,
				"from_status": tr.From.Name,
				"to_status":   tr.To.Name,
			},
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.deps.Metrics.IncProviderError(pe.Provider, pe.Code)
	s.deps.Metrics.IncTransition(string(req.CountryCode), string(tr.From.Code), string(tr.To.Code))
	s.deps.Logger.WarnContext(ctx, "provider rejected bank data request",
		"credit_request_id", req.ID.String(),
		"provider", pe.Provider,
		"error_code", pe.Code,
	)
	return nil
}

// bankingFor returns the existing banking info or a fresh one.
func (s *CreatedStrategy) bankingFor(ctx context.Context, requestID id.CreditRequestID) (*models.BankingInfo, error) {
	info, err := s.deps.Banking.FindByCreditRequestID(ctx, requestID)
	if err == nil {
		return info, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("load banking info: %w", err)
	}
	now := s.deps.Now()
	return &models.BankingInfo{
		ID:              id.NewBankingInfoID(),
		CreditRequestID: requestID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
