// Package colombia implements the CO country bundle: cédula documents,
// DataCrédito lookups and the CO credit policy.
package colombia

import (
	"creditflow/internal/bankdata"
	"creditflow/internal/country"
	"creditflow/internal/platform/config"
	id "creditflow/pkg/domain"
)

const (
	Name         = "Colombia"
	ProviderName = "datacredito"
)

func New(cfg config.Provider, webhookBaseURL string, poster bankdata.Poster, opts ...bankdata.Option) (country.Bundle, error) {
	provider, err := NewProvider(cfg, CallbackURL(webhookBaseURL), poster, opts...)
	if err != nil {
		return country.Bundle{}, err
	}
	return country.Bundle{
		Code:          id.CountryColombia,
		Name:          Name,
		Documents:     NewDocumentValidator(),
		Evaluator:     NewEvaluator(),
		Provider:      provider,
		Payload:       NewPayloadValidator(),
		WebhookSecret: cfg.WebhookSecret,
	}, nil
}

func CallbackURL(webhookBaseURL string) string {
	return webhookBaseURL + "/webhooks/bank-data/co"
}
