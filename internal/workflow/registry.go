// Package workflow drives credit requests through their lifecycle: one
// strategy per non-final status, executed by an idempotent transition job.
package workflow

import (
	"context"
	"fmt"

	"creditflow/internal/credit/models"
	dErrors "creditflow/pkg/domain-errors"
)

// Strategy performs the work attached to one status and advances the request.
type Strategy interface {
	StatusCode() models.StatusCode
	Execute(ctx context.Context, req *models.CreditRequest) error
}

// Registry maps status codes to strategies. Final statuses have none.
type Registry struct {
	strategies map[models.StatusCode]Strategy
}

func NewRegistry(strategies ...Strategy) (*Registry, error) {
	r := &Registry{strategies: make(map[models.StatusCode]Strategy, len(strategies))}
	for _, s := range strategies {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(s Strategy) error {
	code := s.StatusCode()
	if _, exists := r.strategies[code]; exists {
		return fmt.Errorf("strategy for %s already registered", code)
	}
	r.strategies[code] = s
	return nil
}

func (r *Registry) Has(code models.StatusCode) bool {
	_, ok := r.strategies[code]
	return ok
}

func (r *Registry) Get(code models.StatusCode) (Strategy, error) {
	s, ok := r.strategies[code]
	if !ok {
		return nil, dErrors.New(dErrors.CodeStrategyNotFound,
			fmt.Sprintf("no transition strategy for status %s", code)).
			WithDetail("status_code", string(code))
	}
	return s, nil
}

// Codes lists the statuses that have a strategy.
func (r *Registry) Codes() []models.StatusCode {
	out := make([]models.StatusCode, 0, len(r.strategies))
	for code := range r.strategies {
		out = append(out, code)
	}
	return out
}
