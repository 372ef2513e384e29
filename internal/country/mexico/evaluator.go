package mexico

import (
	"github.com/shopspring/decimal"

	"creditflow/internal/country/evaluation"
	"creditflow/pkg/attrs"
)

// Policy is the MX credit policy. MEDIUM risk is approvable.
var Policy = evaluation.Policy{
	MinScore:       600,
	MaxDTI:         0.40,
	AmountLimit:    decimal.NewFromInt(500000),
	MinIncomeRatio: 0.10,
	BalanceFloor:   0,
	Low:            evaluation.Tier{MinScore: 700, MaxDTI: 0.30},
	Medium:         evaluation.Tier{MinScore: 600, MaxDTI: 0.40},
	ApproveMedium:  true,
	Recommendation: evaluation.Recommendation{TargetDTI: 0.30, IncomeMultiple: 6},
}

type Evaluator struct{}

func NewEvaluator() Evaluator {
	return Evaluator{}
}

func (Evaluator) Evaluate(in evaluation.Input, financialData map[string]any) evaluation.Result {
	return evaluation.Evaluate(Policy, in, Facts(financialData))
}

// Facts reads the Buró de Crédito payload. Missing or non-numeric fields
// count as zero.
func Facts(financialData map[string]any) evaluation.Facts {
	return evaluation.Facts{
		Score:        attrs.Score(financialData, "bureau_report.credit_score"),
		MonthlyDebt:  attrs.Float(financialData, "bureau_report.total_monthly_debt"),
		TotalBalance: attrs.Float(financialData, "bank_accounts.total_balance"),
	}
}
