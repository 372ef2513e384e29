// Package audit records the status transition trail.
//
// The writer is fail-open: a failed append is logged and counted but never
// returned to the caller, so an audit outage cannot roll back or block a
// status change. Callers record inside the transaction that changes the
// status; the append then runs behind a savepoint and commits with it.
package audit

import (
	"context"
	"log/slog"
	"time"

	"creditflow/internal/credit/models"
	id "creditflow/pkg/domain"
	"creditflow/pkg/platform/tx"
)

// Store is the append side of the transition store.
type Store interface {
	Append(ctx context.Context, transition *models.StatusTransition) error
}

// Entry describes one transition attempt.
type Entry struct {
	CreditRequestID id.CreditRequestID
	From            *id.StatusID
	To              id.StatusID
	TriggeredBy     models.Trigger
	Reason          string
	Metadata        map[string]any
}

type Writer struct {
	store   Store
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time
}

type Option func(*Writer)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(w *Writer) {
		w.metrics = m
	}
}

func New(store Store, opts ...Option) *Writer {
	w := &Writer{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Record appends the transition. It returns the stored record, or nil when
// the append failed.
func (w *Writer) Record(ctx context.Context, entry Entry) *models.StatusTransition {
	start := w.now()
	transition := &models.StatusTransition{
		ID:              id.NewTransitionID(),
		CreditRequestID: entry.CreditRequestID,
		FromStatusID:    entry.From,
		ToStatusID:      entry.To,
		TriggeredBy:     entry.TriggeredBy,
		Reason:          entry.Reason,
		Metadata:        entry.Metadata,
		CreatedAt:       start,
	}

	err := tx.Savepoint(ctx, "audit_append", func(ctx context.Context) error {
		return w.store.Append(ctx, transition)
	})
	if err != nil {
		if w.metrics != nil {
			w.metrics.IncWriteFailures()
		}
		w.logger.ErrorContext(ctx, "audit transition write failed",
			"credit_request_id", entry.CreditRequestID.String(),
			"to_status_id", entry.To.String(),
			"triggered_by", string(entry.TriggeredBy),
			"error", err,
		)
		return nil
	}

	if w.metrics != nil {
		w.metrics.IncWritten(entry.TriggeredBy)
		w.metrics.ObserveWriteDuration(w.now().Sub(start).Seconds())
	}
	return transition
}
