package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "creditflow/pkg/domain"
	dErrors "creditflow/pkg/domain-errors"
	"creditflow/pkg/platform/httputil"
)

const maxBodyBytes = 1 << 20

// Receiver is what the handler needs from the service.
type Receiver interface {
	Authenticate(code id.CountryCode, body []byte, signature string) error
	Receive(ctx context.Context, code id.CountryCode, env Envelope) (Result, error)
}

type Handler struct {
	service Receiver
	logger  *slog.Logger
}

func NewHandler(service Receiver, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts POST /webhooks/bank-data/{country}.
func (h *Handler) Register(r chi.Router) {
	r.Post("/webhooks/bank-data/{country}", h.HandleBankData)
}

func (h *Handler) HandleBankData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code, err := id.ParseCountryCode(chi.URLParam(r, "country"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "unreadable request body"))
		return
	}

	if err := h.service.Authenticate(code, body, r.Header.Get(SignatureHeader)); err != nil {
		h.logger.WarnContext(ctx, "bank data callback rejected",
			"country", string(code),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "request body is not valid JSON"))
		return
	}

	result, err := h.service.Receive(ctx, code, env)
	if err != nil {
		if dErrors.CodeOf(err) == "" {
			h.logger.ErrorContext(ctx, "bank data callback failed", "country", string(code), "error", err)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"credit_request_id": result.CreditRequestID.String(),
		"outcome":           string(result.Outcome),
	})
}
