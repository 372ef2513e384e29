// Package country bundles the country-specific pieces of the credit workflow
// and resolves them by ISO country code.
package country

import (
	"context"

	"creditflow/internal/bankdata"
	"creditflow/internal/country/evaluation"
	id "creditflow/pkg/domain"
)

// DocumentValidator checks a national identity document number.
type DocumentValidator interface {
	// Validate returns an INVALID_INPUT error for malformed documents.
	Validate(documentID string) error
	DocumentType() string
}

// CreditEvaluator decides a request from its bureau payload. Implementations
// are pure.
type CreditEvaluator interface {
	Evaluate(in evaluation.Input, financialData map[string]any) evaluation.Result
}

// BankDataProvider initiates an asynchronous bureau lookup.
type BankDataProvider interface {
	Name() string
	FetchBankData(ctx context.Context, documentID, creditRequestID string) (*bankdata.FetchResult, error)
}

// PayloadValidator checks a bureau payload delivered by webhook.
type PayloadValidator interface {
	// Validate returns a VALIDATION_FAILED error listing the offending fields.
	Validate(financialData map[string]any) error
}

// Bundle is everything the workflow needs for one country.
type Bundle struct {
	Code      id.CountryCode
	Name      string
	Documents DocumentValidator
	Evaluator CreditEvaluator
	Provider  BankDataProvider
	Payload   PayloadValidator
	// WebhookSecret signs bureau callbacks for this country.
	WebhookSecret string
}
