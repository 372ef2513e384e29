package country

import (
	"fmt"
	"slices"

	id "creditflow/pkg/domain"
	dErrors "creditflow/pkg/domain-errors"
)

// Registry maps country codes to bundles. It is filled once during wiring
// and only read afterwards.
type Registry struct {
	bundles map[id.CountryCode]Bundle
}

// NewRegistry builds a registry from bundles, rejecting duplicates and
// incomplete bundles.
func NewRegistry(bundles ...Bundle) (*Registry, error) {
	r := &Registry{bundles: make(map[id.CountryCode]Bundle, len(bundles))}
	for _, b := range bundles {
		if err := r.Register(b); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a bundle.
func (r *Registry) Register(b Bundle) error {
	if b.Code == "" {
		return fmt.Errorf("country bundle code is required")
	}
	if b.Documents == nil || b.Evaluator == nil || b.Provider == nil || b.Payload == nil {
		return fmt.Errorf("country bundle %s is incomplete", b.Code)
	}
	if _, exists := r.bundles[b.Code]; exists {
		return fmt.Errorf("country %s already registered", b.Code)
	}
	r.bundles[b.Code] = b
	return nil
}

// Get returns the bundle for code or COUNTRY_NOT_SUPPORTED.
func (r *Registry) Get(code id.CountryCode) (Bundle, error) {
	b, ok := r.bundles[code]
	if !ok {
		return Bundle{}, dErrors.New(dErrors.CodeCountryNotSupported,
			fmt.Sprintf("country %q is not supported", string(code))).
			WithDetail("country", string(code)).
			WithDetail("supported", r.codeStrings())
	}
	return b, nil
}

// List returns all bundles ordered by code.
func (r *Registry) List() []Bundle {
	out := make([]Bundle, 0, len(r.bundles))
	for _, code := range r.Codes() {
		out = append(out, r.bundles[code])
	}
	return out
}

// Codes returns the supported codes in sorted order.
func (r *Registry) Codes() []id.CountryCode {
	codes := make([]id.CountryCode, 0, len(r.bundles))
	for code := range r.bundles {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

func (r *Registry) codeStrings() []string {
	codes := r.Codes()
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}
