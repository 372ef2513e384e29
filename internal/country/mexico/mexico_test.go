package mexico

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditflow/internal/bankdata"
	"creditflow/internal/country/evaluation"
	"creditflow/internal/platform/config"
	"creditflow/internal/platform/httpclient"
	dErrors "creditflow/pkg/domain-errors"
)

func payloadFor(score, debt, balance float64) map[string]any {
	return map[string]any{
		"bureau_report": map[string]any{"credit_score": score, "total_monthly_debt": debt},
		"bank_accounts": map[string]any{"total_balance": balance},
	}
}

func TestEvaluator(t *testing.T) {
	in := evaluation.Input{RequestedAmount: decimal.NewFromInt(50000), MonthlyIncome: decimal.NewFromInt(50000)}

	t.Run("approve path", func(t *testing.T) {
		res := NewEvaluator().Evaluate(in, payloadFor(750, 15000, 100000))
		assert.True(t, res.Approved)
		assert.Equal(t, 750, res.Score)
		assert.Equal(t, evaluation.RiskLow, res.RiskTier)
		assert.InDelta(t, 0.30, res.DebtToIncome, 1e-9)
		assert.True(t, res.Checks.AllPassed())
		assert.Nil(t, res.RecommendedAmount)
	})

	t.Run("reject path on score", func(t *testing.T) {
		res := NewEvaluator().Evaluate(in, payloadFor(450, 15000, 100000))
		assert.False(t, res.Approved)
		assert.False(t, res.Checks.CreditScoreOK)
		assert.Contains(t, res.Reason, "Credit score 450 < minimum 600")
		require.NotNil(t, res.RecommendedAmount)
		// min((15000-15000)*12, 300000, 500000) = 0
		assert.True(t, res.RecommendedAmount.IsZero())
	})

	t.Run("medium risk is approved", func(t *testing.T) {
		res := NewEvaluator().Evaluate(in, payloadFor(650, 17500, 10))
		assert.Equal(t, evaluation.RiskMedium, res.RiskTier)
		assert.True(t, res.Approved)
	})

	t.Run("missing payload fields read as zero", func(t *testing.T) {
		res := NewEvaluator().Evaluate(in, map[string]any{"bureau_report": "garbage"})
		assert.Equal(t, 0, res.Score)
		assert.False(t, res.Approved)
	})

	t.Run("out of range scores are clamped", func(t *testing.T) {
		res := NewEvaluator().Evaluate(in, payloadFor(1e300, 15000, 100000))
		assert.Equal(t, math.MaxInt32, res.Score)
		assert.True(t, res.Checks.CreditScoreOK)

		res = NewEvaluator().Evaluate(in, payloadFor(-5, 15000, 100000))
		assert.Equal(t, 0, res.Score)
		assert.False(t, res.Approved)
	})
}

func TestDocumentValidator(t *testing.T) {
	v := NewDocumentValidator()
	assert.NoError(t, v.Validate("GODE561231HDFRRN09"))
	assert.NoError(t, v.Validate("gode561231mdfrrna9"))
	assert.True(t, dErrors.HasCode(v.Validate("GODE561231XDFRRN09"), dErrors.CodeInvalidInput))
	assert.True(t, dErrors.HasCode(v.Validate("1234567890"), dErrors.CodeInvalidInput))
}

func TestPayloadValidator(t *testing.T) {
	v := NewPayloadValidator()
	assert.NoError(t, v.Validate(payloadFor(720, 1000, -10)))

	err := v.Validate(map[string]any{"bureau_report": map[string]any{"credit_score": 900.0}})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Contains(t, err.Error(), "bureau_report.credit_score (lte)")
	assert.Contains(t, err.Error(), "bureau_report.total_monthly_debt (required)")
	assert.Contains(t, err.Error(), "bank_accounts (required)")
}

func TestProvider(t *testing.T) {
	var gotBody map[string]any
	var status int
	var reply map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/credit-reports", r.URL.Path)
		assert.Equal(t, "mx-key", r.Header.Get("X-API-Key"))
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	defer srv.Close()

	bundle, err := New(config.Provider{BaseURL: srv.URL, APIKey: "mx-key"}, "https://hooks.example", httpclient.New(time.Second))
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		status, reply = http.StatusAccepted, map[string]any{"request_id": "buro-1"}
		res, err := bundle.Provider.FetchBankData(context.Background(), "GODE561231HDFRRN09", "req-1")
		require.NoError(t, err)
		assert.Equal(t, "buro-1", res.ExternalRequestID)
		assert.Equal(t, ProviderName, res.ProviderName)
		assert.Equal(t, "GODE561231HDFRRN09", gotBody["curp"])
		assert.Equal(t, "https://hooks.example/webhooks/bank-data/mx", gotBody["callback_url"])
	})

	t.Run("catchable codes", func(t *testing.T) {
		for _, code := range []string{"PERSON_NOT_FOUND", "INVALID_CURP"} {
			status, reply = http.StatusNotFound, map[string]any{"error": map[string]any{"code": code}}
			_, err := bundle.Provider.FetchBankData(context.Background(), "GODE561231HDFRRN09", "req-1")
			assert.True(t, bankdata.IsCatchable(err), code)
		}
	})

	t.Run("maintenance is known but retried", func(t *testing.T) {
		status, reply = http.StatusServiceUnavailable, map[string]any{"error": map[string]any{"code": "BUREAU_MAINTENANCE"}}
		_, err := bundle.Provider.FetchBankData(context.Background(), "GODE561231HDFRRN09", "req-1")
		pe, ok := bankdata.AsProviderError(err)
		require.True(t, ok)
		assert.False(t, pe.ShouldCatch)
	})
}
