// Package ports declares the persistence contracts the workflow engine
// consumes. Stores return sentinel errors; services translate them.
package ports

import (
	"context"

	"creditflow/internal/credit/models"
	id "creditflow/pkg/domain"
)

type RequestStore interface {
	Create(ctx context.Context, req *models.CreditRequest) error
	FindByID(ctx context.Context, requestID id.CreditRequestID) (*models.CreditRequest, error)
	// UpdateStatus is a compare-and-set on the current status id. It returns
	// sentinel.ErrConflict when the row no longer holds expected.
	UpdateStatus(ctx context.Context, requestID id.CreditRequestID, expected, next id.StatusID, reason string) error
	ListByStatusIDs(ctx context.Context, statusIDs []id.StatusID) ([]models.CreditRequest, error)
}

type BankingStore interface {
	// Upsert inserts or replaces the banking info keyed by credit request id.
	Upsert(ctx context.Context, info *models.BankingInfo) error
	FindByCreditRequestID(ctx context.Context, requestID id.CreditRequestID) (*models.BankingInfo, error)
	FindByExternalRequestID(ctx context.Context, externalRequestID string) (*models.BankingInfo, error)
}

type StatusStore interface {
	List(ctx context.Context) ([]models.RequestStatus, error)
}

type TransitionStore interface {
	Append(ctx context.Context, transition *models.StatusTransition) error
	ListByCreditRequestID(ctx context.Context, requestID id.CreditRequestID) ([]models.StatusTransition, error)
}
