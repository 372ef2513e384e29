// Package domainerrors provides coded errors shared by every layer of the
// workflow engine. Callers branch on Code, never on message text.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error kind.
type Code string

const (
	CodeNotFound                   Code = "NOT_FOUND"
	CodeValidation                 Code = "VALIDATION_FAILED"
	CodeInvalidInput               Code = "INVALID_INPUT"
	CodeInvalidStatusTransition    Code = "INVALID_STATUS_TRANSITION"
	CodeCountryNotSupported        Code = "COUNTRY_NOT_SUPPORTED"
	CodeStrategyNotFound           Code = "STRATEGY_NOT_FOUND"
	CodeJobNotRegistered           Code = "JOB_NOT_REGISTERED"
	CodeExternalServiceTimeout     Code = "EXTERNAL_SERVICE_TIMEOUT"
	CodeExternalServiceUnavailable Code = "EXTERNAL_SERVICE_UNAVAILABLE"
	CodeProviderRequestFailed      Code = "PROVIDER_REQUEST_FAILED"
	CodeProviderInvalidResponse    Code = "PROVIDER_INVALID_RESPONSE"
	CodeConflict                   Code = "CONFLICT"
	CodeUnauthorized               Code = "UNAUTHORIZED"
	CodeInternal                   Code = "INTERNAL"
)

// Error carries a Code, a human message, an optional cause and optional
// diagnostic details.
type Error struct {
	Code    Code
	Message string
	Err     error
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// WithDetail returns the error with an extra diagnostic key.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// CodeOf returns the code of the outermost coded error in the chain,
// or an empty code when there is none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// HasCode reports whether the error chain contains a coded error with the given code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is errors.Is, re-exported so callers need a single import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As, re-exported so callers need a single import.
func As(err error, target any) bool {
	return errors.As(err, target)
}
