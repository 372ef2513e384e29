package colombia

import (
	"creditflow/internal/bankdata"
	"creditflow/internal/platform/config"
)

var knownErrors = map[string]bankdata.KnownError{
	"USER_NOT_FOUND":   {Message: "Documento no encontrado en DataCrédito", ShouldCatch: true},
	"DOCUMENT_BLOCKED": {Message: "Documento bloqueado en DataCrédito", ShouldCatch: true},
	"SERVICE_DEGRADED": {Message: "DataCrédito service degraded"},
}

func NewProvider(cfg config.Provider, callbackURL string, poster bankdata.Poster, opts ...bankdata.Option) (*bankdata.HTTPProvider, error) {
	return bankdata.NewHTTPProvider(bankdata.Endpoint{
		ProviderName:     ProviderName,
		BaseURL:          cfg.BaseURL,
		Path:             "/api/v2/consultas",
		APIKeyHeader:     "X-Api-Key",
		APIKey:           cfg.APIKey,
		CallbackURL:      callbackURL,
		CorrelationField: "consulta_id",
		ErrorCodeField:   "codigo_error",
		ErrorMsgField:    "mensaje",
		KnownErrors:      knownErrors,
		Build: func(documentID, creditRequestID, callbackURL string) map[string]any {
			return map[string]any{
				"tipo_documento":   "CC",
				"numero_documento": documentID,
				"referencia":       creditRequestID,
				"url_notificacion": callbackURL,
			}
		},
	}, poster, opts...)
}
