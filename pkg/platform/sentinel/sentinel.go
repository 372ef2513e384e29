package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors.
//
// - ErrNotFound: row does not exist
// - ErrConflict: a compare-and-set lost against a concurrent writer
// - ErrAlreadyExists: unique key (e.g. one banking info per request) already taken
// - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnavailable   = errors.New("unavailable")
)
