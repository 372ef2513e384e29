package notify

import (
	"context"
	"errors"
	"log/slog"

	"creditflow/internal/credit/models"
	id "creditflow/pkg/domain"
	"creditflow/pkg/platform/circuit"
)

// LiveUpdate is the status change pushed to live subscribers.
type LiveUpdate struct {
	models.StatusChangeEvent
	TransitionID *id.TransitionID `json:"transitionId,omitempty"`
}

// Publisher delivers live updates. Delivery is fire-and-forget: callers log
// failures and move on.
type Publisher interface {
	Publish(ctx context.Context, update LiveUpdate) error
}

// NopPublisher discards updates.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, LiveUpdate) error { return nil }

// Fanout publishes to every publisher and joins the failures.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, update LiveUpdate) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, update); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GuardedPublisher tracks consecutive failures of one publisher. The
// breaker never short-circuits delivery; while open, failures are counted
// but not logged individually.
type GuardedPublisher struct {
	name    string
	next    Publisher
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *Metrics
}

type GuardOption func(*GuardedPublisher)

func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(g *GuardedPublisher) {
		g.logger = logger
	}
}

func WithGuardMetrics(m *Metrics) GuardOption {
	return func(g *GuardedPublisher) {
		g.metrics = m
	}
}

func WithBreaker(b *circuit.Breaker) GuardOption {
	return func(g *GuardedPublisher) {
		if b != nil {
			g.breaker = b
		}
	}
}

func Guard(name string, next Publisher, opts ...GuardOption) *GuardedPublisher {
	g := &GuardedPublisher{
		name:    name,
		next:    next,
		breaker: circuit.New(name),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GuardedPublisher) Publish(ctx context.Context, update LiveUpdate) error {
	err := g.next.Publish(ctx, update)
	if err != nil {
		g.metrics.IncPublishFailure(g.name)
		alreadyOpen, change := g.breaker.RecordFailure()
		switch {
		case change.Opened:
			g.metrics.SetCircuitOpen(g.name, true)
			g.logger.WarnContext(ctx, "live update publisher circuit opened",
				"publisher", g.name,
				"error", err,
			)
		case !alreadyOpen:
			g.logger.WarnContext(ctx, "live update publish failed",
				"publisher", g.name,
				"credit_request_id", update.CreditRequestID.String(),
				"error", err,
			)
		}
		return err
	}

	g.metrics.IncPublished(g.name)
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.metrics.SetCircuitOpen(g.name, false)
		g.logger.InfoContext(ctx, "live update publisher circuit closed", "publisher", g.name)
	}
	return nil
}
