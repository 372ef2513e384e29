package workflow

import (
	"errors"
	"log/slog"
	"time"

	"creditflow/internal/audit"
	"creditflow/internal/credit/ports"
	"creditflow/internal/credit/service"
	"creditflow/pkg/platform/tx"
)

// Deps are the collaborators shared by the strategies.
type Deps struct {
	Countries service.CountryResolver
	Banking   ports.BankingStore
	Statuses  *service.Statuses
	Audit     *audit.Writer
	// Tx wraps the banking write, the status update and its audit row.
	// Defaults to tx.NoopRunner for the in-memory stores.
	Tx      tx.Runner
	Logger  *slog.Logger
	Metrics *Metrics
	Now     func() time.Time
}

func (d *Deps) normalize() error {
	switch {
	case d.Countries == nil:
		return errors.New("country registry is required")
	case d.Banking == nil:
		return errors.New("banking store is required")
	case d.Statuses == nil:
		return errors.New("statuses are required")
	case d.Audit == nil:
		return errors.New("audit writer is required")
	}
	if d.Tx == nil {
		d.Tx = tx.NoopRunner{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return nil
}

// NewDefaultRegistry builds the registry with every lifecycle strategy.
func NewDefaultRegistry(deps Deps) (*Registry, error) {
	created, err := NewCreatedStrategy(deps)
	if err != nil {
		return nil, err
	}
	pending, err := NewPendingStrategy(deps)
	if err != nil {
		return nil, err
	}
	evaluating, err := NewEvaluatingStrategy(deps)
	if err != nil {
		return nil, err
	}
	return NewRegistry(created, pending, evaluating)
}
