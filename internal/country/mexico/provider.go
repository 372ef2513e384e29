package mexico

import (
	"creditflow/internal/bankdata"
	"creditflow/internal/platform/config"
)

var knownErrors = map[string]bankdata.KnownError{
	"PERSON_NOT_FOUND":   {Message: "Person not found in Buró de Crédito", ShouldCatch: true},
	"INVALID_CURP":       {Message: "CURP rejected by Buró de Crédito", ShouldCatch: true},
	"BUREAU_MAINTENANCE": {Message: "Buró de Crédito is under maintenance"},
}

func NewProvider(cfg config.Provider, callbackURL string, poster bankdata.Poster, opts ...bankdata.Option) (*bankdata.HTTPProvider, error) {
	return bankdata.NewHTTPProvider(bankdata.Endpoint{
		ProviderName:     ProviderName,
		BaseURL:          cfg.BaseURL,
		Path:             "/v1/credit-reports",
		APIKeyHeader:     "X-API-Key",
		APIKey:           cfg.APIKey,
		CallbackURL:      callbackURL,
		CorrelationField: "request_id",
		ErrorCodeField:   "error.code",
		ErrorMsgField:    "error.message",
		KnownErrors:      knownErrors,
		Build: func(documentID, creditRequestID, callbackURL string) map[string]any {
			return map[string]any{
				"curp":         documentID,
				"reference_id": creditRequestID,
				"callback_url": callbackURL,
				"report_type":  "full",
			}
		},
	}, poster, opts...)
}
