// Package service holds the credit request application services: status
// reference data, the guarded status update, and intake.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"creditflow/internal/credit/models"
	"creditflow/internal/credit/ports"
	id "creditflow/pkg/domain"
	dErrors "creditflow/pkg/domain-errors"
	"creditflow/pkg/platform/sentinel"
)

// Statuses caches the immutable status reference data and is the only
// place a request's status is changed.
type Statuses struct {
	store    ports.StatusStore
	requests ports.RequestStore
	logger   *slog.Logger

	mu     sync.RWMutex
	loaded bool
	byCode map[models.StatusCode]models.RequestStatus
	byID   map[id.StatusID]models.RequestStatus
}

type StatusesOption func(*Statuses)

func WithStatusesLogger(logger *slog.Logger) StatusesOption {
	return func(s *Statuses) {
		s.logger = logger
	}
}

func NewStatuses(store ports.StatusStore, requests ports.RequestStore, opts ...StatusesOption) (*Statuses, error) {
	if store == nil {
		return nil, errors.New("status store is required")
	}
	if requests == nil {
		return nil, errors.New("request store is required")
	}
	s := &Statuses{
		store:    store,
		requests: requests,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load reads the status table once. Later calls are no-ops.
func (s *Statuses) Load(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	statuses, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("load request statuses: %w", err)
	}

	byCode := make(map[models.StatusCode]models.RequestStatus, len(statuses))
	byID := make(map[id.StatusID]models.RequestStatus, len(statuses))
	for _, st := range statuses {
		byCode[st.Code] = st
		byID[st.ID] = st
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.byCode = byCode
		s.byID = byID
		s.loaded = true
		s.logger.InfoContext(ctx, "request statuses loaded", "count", len(statuses))
	}
	return nil
}

func (s *Statuses) GetByCode(ctx context.Context, code models.StatusCode) (models.RequestStatus, error) {
	if err := s.Load(ctx); err != nil {
		return models.RequestStatus{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.byCode[code]
	if !ok {
		return models.RequestStatus{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("status %s not found", code))
	}
	return st, nil
}

func (s *Statuses) FindByID(ctx context.Context, statusID id.StatusID) (models.RequestStatus, error) {
	if err := s.Load(ctx); err != nil {
		return models.RequestStatus{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.byID[statusID]
	if !ok {
		return models.RequestStatus{}, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("status %s not found", statusID))
	}
	return st, nil
}

// Transition is a committed status change.
type Transition struct {
	From models.RequestStatus
	To   models.RequestStatus
}

// Advance moves req from its current status to the status with code to.
// Final statuses and edges outside the lifecycle are
// INVALID_STATUS_TRANSITION. The write is a compare-and-set on req.StatusID:
// a concurrent change yields CONFLICT (wrapping sentinel.ErrConflict).
// On success req.StatusID is updated in place.
func (s *Statuses) Advance(ctx context.Context, req *models.CreditRequest, to models.StatusCode, reason string) (Transition, error) {
	current, err := s.FindByID(ctx, req.StatusID)
	if err != nil {
		return Transition{}, err
	}
	if current.IsFinal {
		return Transition{}, dErrors.New(dErrors.CodeInvalidStatusTransition,
			fmt.Sprintf("credit request is in final status %s", current.Code)).
			WithDetail("from", string(current.Code)).
			WithDetail("to", string(to))
	}
	if !models.CanTransition(current.Code, to) {
		return Transition{}, dErrors.New(dErrors.CodeInvalidStatusTransition,
			fmt.Sprintf("transition %s -> %s is not allowed", current.Code, to)).
			WithDetail("from", string(current.Code)).
			WithDetail("to", string(to))
	}
	next, err := s.GetByCode(ctx, to)
	if err != nil {
		return Transition{}, err
	}

	if err := s.requests.UpdateStatus(ctx, req.ID, current.ID, next.ID, reason); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return Transition{}, dErrors.Wrap(err, dErrors.CodeConflict, "credit request status changed concurrently")
		case errors.Is(err, sentinel.ErrNotFound):
			return Transition{}, dErrors.Wrap(err, dErrors.CodeNotFound, "credit request not found")
		default:
			return Transition{}, fmt.Errorf("update credit request status: %w", err)
		}
	}

	req.StatusID = next.ID
	return Transition{From: current, To: next}, nil
}
