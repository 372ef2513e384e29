package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"

	"creditflow/internal/audit"
	"creditflow/internal/country/evaluation"
	"creditflow/internal/credit/models"
	"creditflow/internal/credit/service"
	dErrors "creditflow/pkg/domain-errors"
	"creditflow/pkg/platform/sentinel"
)

// EvaluatingStrategy scores the bureau payload and approves or rejects.
type EvaluatingStrategy struct {
	deps Deps
}

func NewEvaluatingStrategy(deps Deps) (*EvaluatingStrategy, error) {
	if err := deps.normalize(); err != nil {
		return nil, err
	}
	return &EvaluatingStrategy{deps: deps}, nil
}

func (s *EvaluatingStrategy) StatusCode() models.StatusCode {
	return models.StatusEvaluating
}

func (s *EvaluatingStrategy) Execute(ctx context.Context, req *models.CreditRequest) error {
	info, err := s.deps.Banking.FindByCreditRequestID(ctx, req.ID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "banking info not found").
			WithDetail("credit_request_id", req.ID.String())
	}
	if err != nil {
		return fmt.Errorf("load banking info: %w", err)
	}
	if !info.HasFinancialData() {
		return dErrors.New(dErrors.CodeValidation, "financial data not available yet").
			WithDetail("credit_request_id", req.ID.String())
	}

	// A stored payload of the wrong shape never heals on retry.
	var data map[string]any
	if err := json.Unmarshal(info.FinancialData, &data); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "financial data is not a JSON object").
			WithDetail("credit_request_id", req.ID.String())
	}

	bundle, err := s.deps.Countries.Get(req.CountryCode)
	if err != nil {
		return err
	}

	result := bundle.Evaluator.Evaluate(evaluation.Input{
		RequestedAmount: req.RequestedAmount,
		MonthlyIncome:   req.MonthlyIncome,
	}, data)

	target := models.StatusRejected
	if result.Approved {
		target = models.StatusApproved
	}

	var tr service.Transition
	err = s.deps.Tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		tr, err = s.deps.Statuses.Advance(ctx, req, target, result.Reason)
		if err != nil {
			return err
		}

		metadata := result.AuditMetadata()
		maps.Copy(metadata, map[string]any{
			"country":     string(bundle.Code),
			"provider":    info.ProviderName,
			"from_status": tr.From.Name,
			"to_status":   tr.To.Name,
		})
		s.deps.Audit.Record(ctx, audit.Entry{
			CreditRequestID: req.ID,
			From:            &tr.From.ID,
			To:              tr.To.ID,
			TriggeredBy:     models.TriggerSystem,
			Reason:          result.Reason,
			Metadata:        metadata,
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.deps.Metrics.IncTransition(string(req.CountryCode), string(tr.From.Code), string(tr.To.Code))
	s.deps.Logger.InfoContext(ctx, "credit request evaluated",
		"credit_request_id", req.ID.String(),
		"status_code", string(target),
		"score", result.Score,
		"risk_tier", string(result.RiskTier),
	)
	return nil
}
