package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"creditflow/internal/credit/models"
	"creditflow/internal/credit/service"
	"creditflow/internal/platform/config"
	"creditflow/internal/webhook"
	id "creditflow/pkg/domain"
	"creditflow/pkg/testutil"
)

const mxSecret = "mx-secret"

// =============================================================================
// End-to-end Test Suite
// =============================================================================
// The whole worker runs in memory mode against fake bureaus: intake, change
// bridge, dispatcher, strategies, webhook callbacks and the audit trail.

type EndToEndSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	mx     *httptest.Server
	co     *httptest.Server
	app    *App
	done   chan error

	mu       sync.Mutex
	mxBodies []map[string]any
}

func TestEndToEndSuite(t *testing.T) {
	suite.Run(t, new(EndToEndSuite))
}

func (s *EndToEndSuite) SetupTest() {
	s.mxBodies = nil
	s.mx = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.mxBodies = append(s.mxBodies, body)
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"request_id": "buro-" + body["reference_id"].(string), "status": "PROCESSING"})
	}))
	s.co = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"codigo_error": "USER_NOT_FOUND", "mensaje": "Documento no encontrado"})
	}))

	cfg := config.Config{
		Server: config.Server{Addr: "127.0.0.1:0", ServiceName: "creditflow-test"},
		Jobs: config.Jobs{
			Workers:           2,
			PollInterval:      10 * time.Millisecond,
			TransitionRetries: 3,
			TransitionBackoff: 20 * time.Millisecond,
			StaleAfter:        time.Minute,
		},
		Webhook: config.Webhook{BaseURL: "http://worker.test"},
		Providers: config.Providers{
			Timeout:  2 * time.Second,
			Mexico:   config.Provider{BaseURL: s.mx.URL, APIKey: "mx-key", WebhookSecret: mxSecret},
			Colombia: config.Provider{BaseURL: s.co.URL, APIKey: "co-key"},
		},
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var err error
	s.app, err = New(s.ctx, cfg, logger, WithRegistry(prometheus.NewRegistry()))
	s.Require().NoError(err)

	s.done = make(chan error, 1)
	go func() { s.done <- s.app.RunBackground(s.ctx) }()
}

func (s *EndToEndSuite) TearDownTest() {
	s.cancel()
	s.NoError(<-s.done)
	s.NoError(s.app.Close())
	s.mx.Close()
	s.co.Close()
}

func (s *EndToEndSuite) create(cc, document string, amount, income int64) *models.CreditRequest {
	req, err := s.app.Intake.Create(s.ctx, service.CreateCommand{
		CountryCode:     cc,
		FullName:        "Test Applicant",
		DocumentID:      document,
		RequestedAmount: decimal.NewFromInt(amount),
		MonthlyIncome:   decimal.NewFromInt(income),
	})
	s.Require().NoError(err)
	return req
}

func (s *EndToEndSuite) statusOf(requestID id.CreditRequestID) models.StatusCode {
	req, err := s.app.Requests.FindByID(s.ctx, requestID)
	s.Require().NoError(err)
	st, err := s.app.Statuses.FindByID(s.ctx, req.StatusID)
	s.Require().NoError(err)
	return st.Code
}

func (s *EndToEndSuite) waitFor(requestID id.CreditRequestID, code models.StatusCode) {
	s.Eventually(func() bool { return s.statusOf(requestID) == code },
		3*time.Second, 10*time.Millisecond, "request never reached %s", code)
}

func (s *EndToEndSuite) callback(country string, env webhook.Envelope, secret string) *httptest.ResponseRecorder {
	body := testutil.MustMarshal(s.T(), env)
	req := testutil.NewRawRequest(s.T(), http.MethodPost, "/webhooks/bank-data/"+country, body,
		webhook.SignatureHeader, webhook.Sign(secret, body))
	return testutil.DoRequest(s.app.Router, req)
}

func (s *EndToEndSuite) triggers(requestID id.CreditRequestID) []models.Trigger {
	trail, err := s.app.Transitions.ListByCreditRequestID(s.ctx, requestID)
	s.Require().NoError(err)
	out := make([]models.Trigger, 0, len(trail))
	for _, t := range trail {
		out = append(out, t.TriggeredBy)
	}
	return out
}

func (s *EndToEndSuite) bureauReport(score, debt, balance float64) map[string]any {
	return map[string]any{
		"bureau_report": map[string]any{"credit_score": score, "total_monthly_debt": debt},
		"bank_accounts": map[string]any{"total_balance": balance},
	}
}

// =============================================================================
// Scenarios
// =============================================================================

func (s *EndToEndSuite) TestMexicoApproved() {
	req := s.create("MX", "GODE561231HDFRRN09", 50000, 50000)
	s.waitFor(req.ID, models.StatusPendingForBankData)

	s.mu.Lock()
	s.Require().Len(s.mxBodies, 1)
	s.Equal("http://worker.test/webhooks/bank-data/mx", s.mxBodies[0]["callback_url"])
	s.Equal("GODE561231HDFRRN09", s.mxBodies[0]["curp"])
	s.mu.Unlock()

	w := s.callback("mx", webhook.Envelope{
		ExternalRequestID: "buro-" + req.ID.String(),
		Status:            webhook.StatusSuccess,
		Data:              s.bureauReport(750, 15000, 100000),
	}, mxSecret)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	s.waitFor(req.ID, models.StatusApproved)
	s.Eventually(func() bool { return len(s.triggers(req.ID)) == 4 }, time.Second, 10*time.Millisecond)
	s.ElementsMatch([]models.Trigger{models.TriggerUser, models.TriggerSystem, models.TriggerWebhook, models.TriggerSystem}, s.triggers(req.ID))
}

func (s *EndToEndSuite) TestMexicoRejected() {
	req := s.create("MX", "GODE561231HDFRRN09", 50000, 50000)
	s.waitFor(req.ID, models.StatusPendingForBankData)

	w := s.callback("mx", webhook.Envelope{
		ExternalRequestID: "buro-" + req.ID.String(),
		Status:            webhook.StatusSuccess,
		Data:              s.bureauReport(450, 15000, 100000),
	}, mxSecret)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	s.waitFor(req.ID, models.StatusRejected)
	rejected, err := s.app.Statuses.GetByCode(s.ctx, models.StatusRejected)
	s.Require().NoError(err)
	var decision *models.StatusTransition
	s.Eventually(func() bool {
		trail, err := s.app.Transitions.ListByCreditRequestID(s.ctx, req.ID)
		s.Require().NoError(err)
		for i := range trail {
			if trail[i].ToStatusID == rejected.ID {
				decision = &trail[i]
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	s.Contains(decision.Reason, "Credit score 450 < minimum 600")
	s.Contains(decision.Metadata, "recommended_amount")
}

func (s *EndToEndSuite) TestColombiaProviderNotFound() {
	req := s.create("CO", "1020304050", 5000000, 4000000)
	s.waitFor(req.ID, models.StatusFailedFromProvider)

	info, err := s.app.Banking.FindByCreditRequestID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.FetchFailed, info.FetchStatus)
	s.Equal("Documento no encontrado", info.ErrorMessage)
	s.Eventually(func() bool { return len(s.triggers(req.ID)) == 2 }, time.Second, 10*time.Millisecond)
	s.ElementsMatch([]models.Trigger{models.TriggerUser, models.TriggerProvider}, s.triggers(req.ID))
}

func (s *EndToEndSuite) TestOpsEndpoints() {
	w := testutil.DoRequest(s.app.Router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, w.Code)
	health := testutil.UnmarshalResponse[map[string]any](s.T(), w)
	s.Equal("OK", health["status"])

	req := s.create("CO", "1020304050", 1000, 1000)
	s.waitFor(req.ID, models.StatusFailedFromProvider)

	w = testutil.DoRequest(s.app.Router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, w.Code)
	s.True(strings.Contains(w.Body.String(), "creditflow_status_transitions_total"))
}
