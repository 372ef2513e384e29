package mexico

import "creditflow/internal/country"

// curpPattern: four letters, birth date, sex, state and consonants, a
// homoclave character and a check digit.
const curpPattern = `^[A-Z]{4}\d{6}[HM][A-Z]{5}[A-Z0-9]\d$`

func NewDocumentValidator() *country.PatternDocument {
	return country.NewPatternDocument("CURP", curpPattern)
}
