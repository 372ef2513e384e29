package models

import (
	id "creditflow/pkg/domain"
)

// StatusCode identifies a credit request lifecycle stage.
type StatusCode string

const (
	StatusCreated            StatusCode = "CREATED"
	StatusPendingForBankData StatusCode = "PENDING_FOR_BANK_DATA"
	StatusEvaluating         StatusCode = "EVALUATING"
	StatusApproved           StatusCode = "APPROVED"
	StatusRejected           StatusCode = "REJECTED"
	StatusFailedFromProvider StatusCode = "FAILED_FROM_PROVIDER"
)

// RequestStatus is immutable reference data.
type RequestStatus struct {
	ID      id.StatusID
	Code    StatusCode
	Name    string
	IsFinal bool
}

// DefaultStatuses is the seed set shared by the in-memory store and the
// Postgres migration. Final statuses accept no further transitions.
func DefaultStatuses() []RequestStatus {
	return []RequestStatus{
		{ID: id.NewStatusID(), Code: StatusCreated, Name: "Created"},
		{ID: id.NewStatusID(), Code: StatusPendingForBankData, Name: "Pending for bank data"},
		{ID: id.NewStatusID(), Code: StatusEvaluating, Name: "Evaluating"},
		{ID: id.NewStatusID(), Code: StatusApproved, Name: "Approved", IsFinal: true},
		{ID: id.NewStatusID(), Code: StatusRejected, Name: "Rejected", IsFinal: true},
		{ID: id.NewStatusID(), Code: StatusFailedFromProvider, Name: "Failed from provider", IsFinal: true},
	}
}

// allowedTransitions is the lifecycle DAG. Final statuses have no entry.
var allowedTransitions = map[StatusCode][]StatusCode{
	StatusCreated:            {StatusPendingForBankData, StatusFailedFromProvider},
	StatusPendingForBankData: {StatusEvaluating},
	StatusEvaluating:         {StatusApproved, StatusRejected},
}

// CanTransition reports whether from → to is an edge of the lifecycle DAG.
func CanTransition(from, to StatusCode) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
