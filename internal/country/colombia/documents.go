package colombia

import "creditflow/internal/country"

// NewDocumentValidator accepts a cédula de ciudadanía: 6 to 10 digits.
func NewDocumentValidator() *country.PatternDocument {
	return country.NewPatternDocument("cédula", `^\d{6,10}$`)
}
