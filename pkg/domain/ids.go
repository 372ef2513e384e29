// Package domain holds the typed identifiers and primitives shared across
// bounded contexts. Typed IDs keep a status id from ever being passed where a
// credit request id is expected.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "creditflow/pkg/domain-errors"
)

type (
	CreditRequestID uuid.UUID
	StatusID        uuid.UUID
	BankingInfoID   uuid.UUID
	TransitionID    uuid.UUID
	JobID           uuid.UUID
)

func (id CreditRequestID) String() string { return uuid.UUID(id).String() }
func (id StatusID) String() string        { return uuid.UUID(id).String() }
func (id BankingInfoID) String() string   { return uuid.UUID(id).String() }
func (id TransitionID) String() string    { return uuid.UUID(id).String() }
func (id JobID) String() string           { return uuid.UUID(id).String() }

func (id CreditRequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id StatusID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id TransitionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func NewCreditRequestID() CreditRequestID { return CreditRequestID(uuid.New()) }
func NewStatusID() StatusID               { return StatusID(uuid.New()) }
func NewBankingInfoID() BankingInfoID     { return BankingInfoID(uuid.New()) }
func NewTransitionID() TransitionID       { return TransitionID(uuid.New()) }
func NewJobID() JobID                     { return JobID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs are valid, non-nil UUIDs.
func parseUUID(kind, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return parsed, nil
}

func ParseCreditRequestID(s string) (CreditRequestID, error) {
	u, err := parseUUID("credit_request_id", s)
	return CreditRequestID(u), err
}

func ParseStatusID(s string) (StatusID, error) {
	u, err := parseUUID("status_id", s)
	return StatusID(u), err
}

func ParseTransitionID(s string) (TransitionID, error) {
	u, err := parseUUID("transition_id", s)
	return TransitionID(u), err
}

func ParseJobID(s string) (JobID, error) {
	u, err := parseUUID("job_id", s)
	return JobID(u), err
}

// MarshalText and UnmarshalText let typed IDs travel inside JSON job payloads
// and notification events as plain UUID strings.
func (id CreditRequestID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id StatusID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id TransitionID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *CreditRequestID) UnmarshalText(b []byte) error {
	parsed, err := ParseCreditRequestID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *StatusID) UnmarshalText(b []byte) error {
	parsed, err := ParseStatusID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *TransitionID) UnmarshalText(b []byte) error {
	parsed, err := ParseTransitionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
