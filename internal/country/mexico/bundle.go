// Package mexico implements the MX country bundle: CURP documents, Buró de
// Crédito lookups and the MX credit policy.
package mexico

import (
	"creditflow/internal/bankdata"
	"creditflow/internal/country"
	"creditflow/internal/platform/config"
	id "creditflow/pkg/domain"
)

const (
	Name         = "Mexico"
	ProviderName = "buro_de_credito"
)

// New assembles the MX bundle. The provider callback URL is derived from
// webhookBaseURL.
func New(cfg config.Provider, webhookBaseURL string, poster bankdata.Poster, opts ...bankdata.Option) (country.Bundle, error) {
	provider, err := NewProvider(cfg, CallbackURL(webhookBaseURL), poster, opts...)
	if err != nil {
		return country.Bundle{}, err
	}
	return country.Bundle{
		Code:          id.CountryMexico,
		Name:          Name,
		Documents:     NewDocumentValidator(),
		Evaluator:     NewEvaluator(),
		Provider:      provider,
		Payload:       NewPayloadValidator(),
		WebhookSecret: cfg.WebhookSecret,
	}, nil
}

func CallbackURL(webhookBaseURL string) string {
	return webhookBaseURL + "/webhooks/bank-data/mx"
}
