package domain

import (
	"regexp"
	"strings"

	dErrors "creditflow/pkg/domain-errors"
)

// CountryCode is an ISO 3166-1 alpha-2 code, always upper case.
type CountryCode string

const (
	CountryMexico   CountryCode = "MX"
	CountryColombia CountryCode = "CO"
)

var countryCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)

// ParseCountryCode normalizes case and rejects anything that is not two letters.
func ParseCountryCode(s string) (CountryCode, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	if !countryCodePattern.MatchString(normalized) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "country code must be two letters").
			WithDetail("country_code", s)
	}
	return CountryCode(normalized), nil
}

func (c CountryCode) String() string { return string(c) }
