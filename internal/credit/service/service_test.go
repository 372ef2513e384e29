package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"creditflow/internal/audit"
	"creditflow/internal/country"
	"creditflow/internal/country/colombia"
	"creditflow/internal/country/mexico"
	"creditflow/internal/credit/models"
	"creditflow/internal/credit/store"
	"creditflow/internal/platform/config"
	"creditflow/internal/platform/httpclient"
	id "creditflow/pkg/domain"
	dErrors "creditflow/pkg/domain-errors"
	"creditflow/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	ctx         context.Context
	statusList  []models.RequestStatus
	requests    *store.InMemoryRequestStore
	transitions *store.InMemoryTransitionStore
	statuses    *Statuses
	intake      *Intake
	events      []models.StatusChangeEvent
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.statusList = models.DefaultStatuses()
	s.requests = store.NewInMemoryRequestStore(s.statusList)
	s.transitions = store.NewInMemoryTransitionStore()
	s.events = nil
	s.requests.OnStatusChange(func(e models.StatusChangeEvent) {
		s.events = append(s.events, e)
	})

	var err error
	s.statuses, err = NewStatuses(store.NewInMemoryStatusStore(s.statusList), s.requests)
	s.Require().NoError(err)

	poster := httpclient.New(time.Second)
	mx, err := mexico.New(config.Provider{BaseURL: "http://mx.invalid"}, "https://hooks.example", poster)
	s.Require().NoError(err)
	co, err := colombia.New(config.Provider{BaseURL: "http://co.invalid"}, "https://hooks.example", poster)
	s.Require().NoError(err)
	countries, err := country.NewRegistry(mx, co)
	s.Require().NoError(err)

	s.intake, err = NewIntake(s.requests, s.statuses, countries, audit.New(s.transitions),
		WithIntakeClock(func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }))
	s.Require().NoError(err)
}

func (s *ServiceSuite) status(code models.StatusCode) models.RequestStatus {
	st, err := s.statuses.GetByCode(s.ctx, code)
	s.Require().NoError(err)
	return st
}

func (s *ServiceSuite) newRequest(code models.StatusCode) *models.CreditRequest {
	req := &models.CreditRequest{
		ID:              id.NewCreditRequestID(),
		CountryCode:     id.CountryMexico,
		FullName:        "Ana Pérez",
		DocumentID:      "GODE561231HDFRRN09",
		RequestedAmount: decimal.NewFromInt(50000),
		MonthlyIncome:   decimal.NewFromInt(50000),
		StatusID:        s.status(code).ID,
	}
	s.Require().NoError(s.requests.Create(s.ctx, req))
	return req
}

// =============================================================================
// Status reference data
// =============================================================================

func (s *ServiceSuite) TestStatusLookups() {
	created := s.status(models.StatusCreated)
	s.Equal("Created", created.Name)

	byID, err := s.statuses.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created, byID)

	_, err = s.statuses.FindByID(s.ctx, id.NewStatusID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.statuses.GetByCode(s.ctx, "UNKNOWN")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// =============================================================================
// Advance
// =============================================================================

func (s *ServiceSuite) TestAdvance() {
	s.Run("moves along the lifecycle and updates the request", func() {
		req := s.newRequest(models.StatusCreated)
		tr, err := s.statuses.Advance(s.ctx, req, models.StatusPendingForBankData, "bank data requested")
		s.Require().NoError(err)
		s.Equal(models.StatusCreated, tr.From.Code)
		s.Equal(models.StatusPendingForBankData, tr.To.Code)
		s.Equal(tr.To.ID, req.StatusID)

		stored, err := s.requests.FindByID(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(tr.To.ID, stored.StatusID)
	})

	s.Run("final status is rejected", func() {
		for _, code := range []models.StatusCode{models.StatusApproved, models.StatusRejected, models.StatusFailedFromProvider} {
			req := s.newRequest(code)
			_, err := s.statuses.Advance(s.ctx, req, models.StatusEvaluating, "")
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition), code)
		}
	})

	s.Run("edge outside the lifecycle is rejected", func() {
		req := s.newRequest(models.StatusCreated)
		_, err := s.statuses.Advance(s.ctx, req, models.StatusApproved, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStatusTransition))

		stored, err := s.requests.FindByID(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(s.status(models.StatusCreated).ID, stored.StatusID)
	})

	s.Run("stale copy loses the compare-and-set", func() {
		req := s.newRequest(models.StatusCreated)
		stale := *req
		_, err := s.statuses.Advance(s.ctx, req, models.StatusPendingForBankData, "")
		s.Require().NoError(err)

		_, err = s.statuses.Advance(s.ctx, &stale, models.StatusFailedFromProvider, "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.True(errors.Is(err, sentinel.ErrConflict))
	})

	s.Run("missing request", func() {
		req := &models.CreditRequest{ID: id.NewCreditRequestID(), StatusID: s.status(models.StatusCreated).ID}
		_, err := s.statuses.Advance(s.ctx, req, models.StatusPendingForBankData, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Intake
// =============================================================================

func (s *ServiceSuite) TestIntakeCreate() {
	s.Run("creates in CREATED with a user audit record", func() {
		s.events = nil
		req, err := s.intake.Create(s.ctx, CreateCommand{
			CountryCode:     "mx",
			FullName:        "  Ana Pérez ",
			DocumentID:      "gode561231hdfrrn09",
			RequestedAmount: decimal.NewFromInt(50000),
			MonthlyIncome:   decimal.NewFromInt(50000),
		})
		s.Require().NoError(err)
		s.Equal(id.CountryMexico, req.CountryCode)
		s.Equal("Ana Pérez", req.FullName)
		s.Equal("GODE561231HDFRRN09", req.DocumentID)
		s.Equal(s.status(models.StatusCreated).ID, req.StatusID)
		s.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), req.RequestedAt)

		s.Require().Len(s.events, 1)
		s.Nil(s.events[0].FromStatusID)
		s.Equal(models.StatusCreated, s.events[0].StatusCode)

		trail, err := s.transitions.ListByCreditRequestID(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Require().Len(trail, 1)
		s.Equal(models.TriggerUser, trail[0].TriggeredBy)
		s.Nil(trail[0].FromStatusID)
		s.Equal("CURP", trail[0].Metadata["document_type"])
	})

	s.Run("unsupported country", func() {
		_, err := s.intake.Create(s.ctx, CreateCommand{
			CountryCode: "AR", FullName: "X", DocumentID: "123",
			RequestedAmount: decimal.NewFromInt(1),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeCountryNotSupported))
	})

	s.Run("invalid document for country", func() {
		_, err := s.intake.Create(s.ctx, CreateCommand{
			CountryCode: "CO", FullName: "Juan", DocumentID: "ABC",
			RequestedAmount: decimal.NewFromInt(1000),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("amount must be positive", func() {
		_, err := s.intake.Create(s.ctx, CreateCommand{
			CountryCode: "CO", FullName: "Juan", DocumentID: "1020304050",
			RequestedAmount: decimal.Zero,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing name", func() {
		_, err := s.intake.Create(s.ctx, CreateCommand{
			CountryCode: "CO", DocumentID: "1020304050",
			RequestedAmount: decimal.NewFromInt(1000),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestNewStatuses_RequiresStores(t *testing.T) {
	_, err := NewStatuses(nil, store.NewInMemoryRequestStore(nil))
	if err == nil || err.Error() != "status store is required" {
		t.Fatalf("unexpected error: %v", err)
	}
}
