package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"creditflow/internal/audit"
	"creditflow/internal/country"
	"creditflow/internal/credit/models"
	"creditflow/internal/credit/ports"
	id "creditflow/pkg/domain"
	dErrors "creditflow/pkg/domain-errors"
	"creditflow/pkg/platform/sentinel"
	"creditflow/pkg/platform/tx"
)

// CountryResolver looks up a country bundle.
type CountryResolver interface {
	Get(code id.CountryCode) (country.Bundle, error)
}

// CreateCommand is a new credit application.
type CreateCommand struct {
	CountryCode     string `validate:"required,len=2,alpha"`
	FullName        string `validate:"required,max=200"`
	DocumentID      string `validate:"required,max=32"`
	RequestedAmount decimal.Decimal
	MonthlyIncome   decimal.Decimal
	RequestedAt     time.Time
}

// Intake validates applications and creates them in CREATED. The insert
// fires the first status change event.
type Intake struct {
	requests  ports.RequestStore
	statuses  *Statuses
	countries CountryResolver
	audit     *audit.Writer
	tx        tx.Runner
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

type IntakeOption func(*Intake)

func WithIntakeLogger(logger *slog.Logger) IntakeOption {
	return func(i *Intake) {
		i.logger = logger
	}
}

// WithIntakeTx makes the insert and its audit row commit together.
func WithIntakeTx(runner tx.Runner) IntakeOption {
	return func(i *Intake) {
		i.tx = runner
	}
}

func WithIntakeClock(now func() time.Time) IntakeOption {
	return func(i *Intake) {
		i.now = now
	}
}

func NewIntake(requests ports.RequestStore, statuses *Statuses, countries CountryResolver, auditWriter *audit.Writer, opts ...IntakeOption) (*Intake, error) {
	if requests == nil {
		return nil, errors.New("request store is required")
	}
	if statuses == nil {
		return nil, errors.New("statuses are required")
	}
	if countries == nil {
		return nil, errors.New("country registry is required")
	}
	if auditWriter == nil {
		return nil, errors.New("audit writer is required")
	}
	i := &Intake{
		requests:  requests,
		statuses:  statuses,
		countries: countries,
		audit:     auditWriter,
		tx:        tx.NoopRunner{},
		validate:  validator.New(),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func (i *Intake) Create(ctx context.Context, cmd CreateCommand) (*models.CreditRequest, error) {
	cmd.FullName = strings.TrimSpace(cmd.FullName)
	cmd.DocumentID = strings.ToUpper(strings.TrimSpace(cmd.DocumentID))
	if err := i.validate.Struct(cmd); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid credit application")
	}
	if !cmd.RequestedAmount.IsPositive() {
		return nil, dErrors.New(dErrors.CodeValidation, "requested amount must be positive")
	}
	if cmd.MonthlyIncome.IsNegative() {
		return nil, dErrors.New(dErrors.CodeValidation, "monthly income must not be negative")
	}

	code, err := id.ParseCountryCode(cmd.CountryCode)
	if err != nil {
		return nil, err
	}
	bundle, err := i.countries.Get(code)
	if err != nil {
		return nil, err
	}
	if err := bundle.Documents.Validate(cmd.DocumentID); err != nil {
		return nil, err
	}

	created, err := i.statuses.GetByCode(ctx, models.StatusCreated)
	if err != nil {
		return nil, err
	}

	now := i.now()
	requestedAt := cmd.RequestedAt
	if requestedAt.IsZero() {
		requestedAt = now
	}
	req := &models.CreditRequest{
		ID:              id.NewCreditRequestID(),
		CountryCode:     code,
		FullName:        cmd.FullName,
		DocumentID:      cmd.DocumentID,
		RequestedAmount: cmd.RequestedAmount,
		MonthlyIncome:   cmd.MonthlyIncome,
		StatusID:        created.ID,
		RequestedAt:     requestedAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = i.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := i.requests.Create(ctx, req); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyExists) {
				return dErrors.Wrap(err, dErrors.CodeConflict, "credit request already exists")
			}
			return fmt.Errorf("create credit request: %w", err)
		}
		i.audit.Record(ctx, audit.Entry{
			CreditRequestID: req.ID,
			To:              created.ID,
			TriggeredBy:     models.TriggerUser,
			Reason:          "Credit request created",
			Metadata: map[string]any{
				"country":       string(code),
				"document_type": bundle.Documents.DocumentType(),
				"to_status":     string(created.Code),
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	i.logger.InfoContext(ctx, "credit request created",
		"credit_request_id", req.ID.String(),
		"country", string(code),
	)
	return req, nil
}
