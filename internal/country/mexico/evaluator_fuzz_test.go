package mexico

import (
	"math"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"creditflow/internal/country/evaluation"
)

func FuzzEvaluator(f *testing.F) {
	f.Add(int64(50000), int64(50000), "750", "15000", "100000")
	f.Add(int64(50000), int64(50000), "450", "15000", "100000")
	f.Add(int64(1), int64(0), "", "abc", "-1")
	f.Add(int64(50000), int64(50000), "1e300", "0", "0")

	f.Fuzz(func(t *testing.T, amount, income int64, score, debt, balance string) {
		in := evaluation.Input{RequestedAmount: decimal.NewFromInt(amount), MonthlyIncome: decimal.NewFromInt(income)}
		payload := payloadFor(0, 0, 0)
		payload["bureau_report"] = map[string]any{"credit_score": score, "total_monthly_debt": debt}
		payload["bank_accounts"] = map[string]any{"total_balance": balance}

		a := NewEvaluator().Evaluate(in, payload)
		b := NewEvaluator().Evaluate(in, payload)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("not deterministic: %+v vs %+v", a, b)
		}
		if a.Score < 0 || a.Score > math.MaxInt32 {
			t.Fatalf("score %d out of range", a.Score)
		}
		if a.Approved != (a.RecommendedAmount == nil) {
			t.Fatalf("recommended amount presence mismatch: approved=%v", a.Approved)
		}
		if a.RecommendedAmount != nil && (a.RecommendedAmount.IsNegative() || a.RecommendedAmount.GreaterThan(Policy.AmountLimit)) {
			t.Fatalf("recommended amount %s out of range", a.RecommendedAmount)
		}
	})
}
