package models

import (
	"encoding/json"
	"time"

	id "creditflow/pkg/domain"
)

type FetchStatus string

const (
	FetchPending FetchStatus = "PENDING"
	FetchSuccess FetchStatus = "SUCCESS"
	FetchFailed  FetchStatus = "FAILED"
)

// BankingInfo is one-to-one with a credit request. FinancialData is the raw
// provider payload; only the country evaluator interprets it.
type BankingInfo struct {
	ID                id.BankingInfoID
	CreditRequestID   id.CreditRequestID
	ExternalRequestID string
	ProviderName      string
	FetchStatus       FetchStatus
	FinancialData     json.RawMessage
	ErrorMessage      string
	RetryCount        int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasFinancialData reports whether the webhook payload has arrived.
func (b *BankingInfo) HasFinancialData() bool {
	if b == nil || len(b.FinancialData) == 0 {
		return false
	}
	trimmed := string(b.FinancialData)
	return trimmed != "null" && trimmed != "{}"
}
