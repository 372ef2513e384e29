package workflow

import (
	"context"
	"errors"
	"fmt"

	"creditflow/internal/audit"
	"creditflow/internal/credit/models"
	"creditflow/internal/credit/service"
	"creditflow/pkg/platform/sentinel"
)

// PendingStrategy covers callbacks that arrived before the request reached
// PENDING_FOR_BANK_DATA: if the payload is already stored it moves the
// request on to EVALUATING. Otherwise the callback will do it.
type PendingStrategy struct {
	deps Deps
}

func NewPendingStrategy(deps Deps) (*PendingStrategy, error) {
	if err := deps.normalize(); err != nil {
		return nil, err
	}
	return &PendingStrategy{deps: deps}, nil
}

func (s *PendingStrategy) StatusCode() models.StatusCode {
	return models.StatusPendingForBankData
}

func (s *PendingStrategy) Execute(ctx context.Context, req *models.CreditRequest) error {
	info, err := s.deps.Banking.FindByCreditRequestID(ctx, req.ID)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.deps.Logger.WarnContext(ctx, "pending request has no banking info", "credit_request_id", req.ID.String())
		return nil
	}
	if err != nil {
		return fmt.Errorf("load banking info: %w", err)
	}
	if info.FetchStatus != models.FetchSuccess || !info.HasFinancialData() {
		s.deps.Logger.DebugContext(ctx, "waiting for bank data callback", "credit_request_id", req.ID.String())
		return nil
	}

	reason := "Bank data received before pending transition"
	var tr service.Transition
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		tr, err = s.deps.Statuses.Advance(ctx, req, models.StatusEvaluating, reason)
		if err != nil {
			return err
		}
		s.deps.Audit.Record(ctx, audit.Entry{
			CreditRequestID: req.ID,
			From:            &tr.From.ID,
			To:              tr.To.ID,
			TriggeredBy:     models.TriggerSystem,
			Reason:          reason,
			Metadata: map[string]any{
				"country":             string(req.CountryCode),
				"provider":            info.ProviderName,
				"external_request_id": info.ExternalRequestID,
				"from_status":         tr.From.Name,
				"to_status":           tr.To.Name,
			},
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.deps.Metrics.IncTransition(string(req.CountryCode), string(tr.From.Code), string(tr.To.Code))
	return nil
}
