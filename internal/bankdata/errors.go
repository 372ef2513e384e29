package bankdata

import (
	"errors"
	"fmt"
)

// ProviderError is a provider-domain failure recognized from a country's
// error table. ShouldCatch marks recoverable outcomes (e.g. applicant not
// found) that end the request in FAILED_FROM_PROVIDER instead of retrying.
type ProviderError struct {
	Provider    string
	Code        string
	Message     string
	ShouldCatch bool
	HTTPStatus  int
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider %s [%s]: %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("provider %s [%s]", e.Provider, e.Code)
}

// KnownError describes one recognized provider error code.
type KnownError struct {
	Message     string
	ShouldCatch bool
}

// AsProviderError extracts a ProviderError from the chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsCatchable reports whether err is a provider error that should be turned
// into a FAILED_FROM_PROVIDER transition.
func IsCatchable(err error) bool {
	pe, ok := AsProviderError(err)
	return ok && pe.ShouldCatch
}
