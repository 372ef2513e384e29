// Package httputil writes JSON responses and maps coded errors onto HTTP
// statuses.
package httputil

import (
	"encoding/json"
	"net/http"
	"strings"

	dErrors "creditflow/pkg/domain-errors"
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders {"error": code, "error_description": message}. Internal
// errors never expose their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	if code == "" {
		code = dErrors.CodeInternal
	}
	status := StatusFor(code)

	body := map[string]string{"error": strings.ToLower(string(code))}
	if status < http.StatusInternalServerError {
		var de *dErrors.Error
		if dErrors.As(err, &de) {
			body["error_description"] = de.Message
		}
	}
	WriteJSON(w, status, body)
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeCountryNotSupported:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeConflict, dErrors.CodeInvalidStatusTransition:
		return http.StatusConflict
	case dErrors.CodeExternalServiceTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeExternalServiceUnavailable, dErrors.CodeProviderRequestFailed, dErrors.CodeProviderInvalidResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
