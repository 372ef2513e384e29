package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "creditflow/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		wantStatus      int
		wantCode        string
		wantDescription string
	}{
		{
			name:       "server errors hide the message",
			err:        dErrors.New(dErrors.CodeInternal, "db failed"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal",
		},
		{
			name:            "wrapped client errors keep the message",
			err:             fmt.Errorf("webhook: %w", dErrors.New(dErrors.CodeValidation, "invalid payload")),
			wantStatus:      http.StatusBadRequest,
			wantCode:        "validation_failed",
			wantDescription: "invalid payload",
		},
		{
			name:       "provider failures are gateway errors",
			err:        dErrors.New(dErrors.CodeProviderRequestFailed, "bureau said 503"),
			wantStatus: http.StatusBadGateway,
			wantCode:   "provider_request_failed",
		},
		{
			name:       "uncoded errors are internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["error"])
			desc, ok := body["error_description"]
			if tt.wantDescription == "" {
				assert.False(t, ok, "error_description should be omitted")
			} else {
				assert.Equal(t, tt.wantDescription, desc)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeNotFound:                   http.StatusNotFound,
		dErrors.CodeInvalidInput:               http.StatusBadRequest,
		dErrors.CodeUnauthorized:               http.StatusUnauthorized,
		dErrors.CodeConflict:                   http.StatusConflict,
		dErrors.CodeInvalidStatusTransition:    http.StatusConflict,
		dErrors.CodeCountryNotSupported:        http.StatusBadRequest,
		dErrors.CodeExternalServiceTimeout:     http.StatusGatewayTimeout,
		dErrors.CodeExternalServiceUnavailable: http.StatusBadGateway,
		dErrors.CodeProviderInvalidResponse:    http.StatusBadGateway,
		dErrors.CodeStrategyNotFound:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusFor(code), "status for %s", code)
	}
}
