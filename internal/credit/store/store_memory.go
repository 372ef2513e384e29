package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"creditflow/internal/credit/models"
	id "creditflow/pkg/domain"
	"creditflow/pkg/platform/sentinel"
)

// InMemoryStatusStore serves the default status seed.
type InMemoryStatusStore struct {
	statuses []models.RequestStatus
}

func NewInMemoryStatusStore(statuses []models.RequestStatus) *InMemoryStatusStore {
	if statuses == nil {
		statuses = models.DefaultStatuses()
	}
	return &InMemoryStatusStore{statuses: statuses}
}

func (s *InMemoryStatusStore) List(_ context.Context) ([]models.RequestStatus, error) {
	out := make([]models.RequestStatus, len(s.statuses))
	copy(out, s.statuses)
	return out, nil
}

// InMemoryRequestStore keeps credit requests in a map and mirrors the
// Postgres notify trigger: every insert and status change is reported to
// the registered listeners after the write is visible.
type InMemoryRequestStore struct {
	mu        sync.RWMutex
	requests  map[id.CreditRequestID]models.CreditRequest
	statuses  map[id.StatusID]models.RequestStatus
	listeners []func(models.StatusChangeEvent)
}

func NewInMemoryRequestStore(statuses []models.RequestStatus) *InMemoryRequestStore {
	byID := make(map[id.StatusID]models.RequestStatus, len(statuses))
	for _, s := range statuses {
		byID[s.ID] = s
	}
	return &InMemoryRequestStore{
		requests: make(map[id.CreditRequestID]models.CreditRequest),
		statuses: byID,
	}
}

// OnStatusChange registers a listener. Listeners must not block.
func (s *InMemoryRequestStore) OnStatusChange(fn func(models.StatusChangeEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *InMemoryRequestStore) Create(_ context.Context, req *models.CreditRequest) error {
	if req == nil {
		return fmt.Errorf("credit request is required")
	}
	s.mu.Lock()
	if _, exists := s.requests[req.ID]; exists {
		s.mu.Unlock()
		return sentinel.ErrAlreadyExists
	}
	now := time.Now()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now
	s.requests[req.ID] = *req
	event := s.eventLocked(req.ID, nil, req.StatusID, "", now)
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, event)
	return nil
}

func (s *InMemoryRequestStore) FindByID(_ context.Context, requestID id.CreditRequestID) (*models.CreditRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &req, nil
}

func (s *InMemoryRequestStore) UpdateStatus(_ context.Context, requestID id.CreditRequestID, expected, next id.StatusID, reason string) error {
	s.mu.Lock()
	req, ok := s.requests[requestID]
	if !ok {
		s.mu.Unlock()
		return sentinel.ErrNotFound
	}
	if req.StatusID != expected {
		s.mu.Unlock()
		return sentinel.ErrConflict
	}
	now := time.Now()
	req.StatusID = next
	req.UpdatedAt = now
	s.requests[requestID] = req
	from := expected
	event := s.eventLocked(requestID, &from, next, reason, now)
	listeners := s.listeners
	s.mu.Unlock()

	notify(listeners, event)
	return nil
}

func (s *InMemoryRequestStore) ListByStatusIDs(_ context.Context, statusIDs []id.StatusID) ([]models.CreditRequest, error) {
	wanted := make(map[id.StatusID]struct{}, len(statusIDs))
	for _, sid := range statusIDs {
		wanted[sid] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.CreditRequest
	for _, req := range s.requests {
		if _, ok := wanted[req.StatusID]; ok {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryRequestStore) eventLocked(requestID id.CreditRequestID, from *id.StatusID, to id.StatusID, reason string, at time.Time) models.StatusChangeEvent {
	status := s.statuses[to]
	return models.StatusChangeEvent{
		CreditRequestID: requestID,
		FromStatusID:    from,
		ToStatusID:      to,
		StatusCode:      status.Code,
		StatusName:      status.Name,
		Reason:          reason,
		CreatedAt:       at,
	}
}

func notify(listeners []func(models.StatusChangeEvent), event models.StatusChangeEvent) {
	for _, fn := range listeners {
		fn(event)
	}
}

// InMemoryBankingStore keys banking info by credit request id.
type InMemoryBankingStore struct {
	mu   sync.RWMutex
	byID map[id.CreditRequestID]models.BankingInfo
}

func NewInMemoryBankingStore() *InMemoryBankingStore {
	return &InMemoryBankingStore{byID: make(map[id.CreditRequestID]models.BankingInfo)}
}

func (s *InMemoryBankingStore) Upsert(_ context.Context, info *models.BankingInfo) error {
	if info == nil {
		return fmt.Errorf("banking info is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.byID[info.CreditRequestID]; ok {
		info.ID = existing.ID
		info.CreatedAt = existing.CreatedAt
	} else if info.CreatedAt.IsZero() {
		info.CreatedAt = now
	}
	info.UpdatedAt = now
	stored := *info
	stored.FinancialData = append([]byte(nil), info.FinancialData...)
	s.byID[info.CreditRequestID] = stored
	return nil
}

func (s *InMemoryBankingStore) FindByCreditRequestID(_ context.Context, requestID id.CreditRequestID) (*models.BankingInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.byID[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &info, nil
}

func (s *InMemoryBankingStore) FindByExternalRequestID(_ context.Context, externalRequestID string) (*models.BankingInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, info := range s.byID {
		if externalRequestID != "" && info.ExternalRequestID == externalRequestID {
			found := info
			return &found, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// InMemoryTransitionStore is append-only. FailNext lets tests simulate an
// audit outage.
type InMemoryTransitionStore struct {
	mu          sync.RWMutex
	transitions map[id.CreditRequestID][]models.StatusTransition
	failWith    error
}

func NewInMemoryTransitionStore() *InMemoryTransitionStore {
	return &InMemoryTransitionStore{transitions: make(map[id.CreditRequestID][]models.StatusTransition)}
}

// FailWith makes every Append return err until called again with nil.
func (s *InMemoryTransitionStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *InMemoryTransitionStore) Append(_ context.Context, transition *models.StatusTransition) error {
	if transition == nil {
		return fmt.Errorf("transition is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if transition.ID.IsNil() {
		transition.ID = id.NewTransitionID()
	}
	if transition.CreatedAt.IsZero() {
		transition.CreatedAt = time.Now()
	}
	s.transitions[transition.CreditRequestID] = append(s.transitions[transition.CreditRequestID], *transition)
	return nil
}

func (s *InMemoryTransitionStore) ListByCreditRequestID(_ context.Context, requestID id.CreditRequestID) ([]models.StatusTransition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.StatusTransition, len(s.transitions[requestID]))
	copy(out, s.transitions[requestID])
	return out, nil
}
