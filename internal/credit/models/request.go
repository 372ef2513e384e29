package models

import (
	"time"

	"github.com/shopspring/decimal"

	id "creditflow/pkg/domain"
)

// CreditRequest is owned by the workflow engine while a transition runs.
type CreditRequest struct {
	ID              id.CreditRequestID
	CountryCode     id.CountryCode
	FullName        string
	DocumentID      string
	RequestedAmount decimal.Decimal
	MonthlyIncome   decimal.Decimal
	StatusID        id.StatusID
	RequestedAt     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StatusChangeEvent is emitted by persistence whenever a request is created
// or its status changes. FromStatusID is nil for the initial insert.
type StatusChangeEvent struct {
	CreditRequestID id.CreditRequestID `json:"creditRequestId"`
	FromStatusID    *id.StatusID       `json:"fromStatusId,omitempty"`
	ToStatusID      id.StatusID        `json:"toStatusId"`
	StatusCode      StatusCode         `json:"statusCode"`
	StatusName      string             `json:"statusName"`
	Reason          string             `json:"reason,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
}
