package colombia

import (
	"github.com/shopspring/decimal"

	"creditflow/internal/country/evaluation"
	"creditflow/pkg/attrs"
)

// Policy is the CO credit policy. Only LOW risk is approved; the balance
// floor allows an overdraft of 100,000.
var Policy = evaluation.Policy{
	MinScore:       650,
	MaxDTI:         0.35,
	AmountLimit:    decimal.NewFromInt(50_000_000),
	MinIncomeRatio: 0.05,
	BalanceFloor:   -100_000,
	Low:            evaluation.Tier{MinScore: 750, MaxDTI: 0.25},
	Medium:         evaluation.Tier{MinScore: 650, MaxDTI: 0.35},
	ApproveMedium:  false,
	Recommendation: evaluation.Recommendation{TargetDTI: 0.25, IncomeMultiple: 5},
}

type Evaluator struct{}

func NewEvaluator() Evaluator {
	return Evaluator{}
}

func (Evaluator) Evaluate(in evaluation.Input, financialData map[string]any) evaluation.Result {
	return evaluation.Evaluate(Policy, in, Facts(financialData))
}

// Facts reads the DataCrédito payload defensively.
func Facts(financialData map[string]any) evaluation.Facts {
	return evaluation.Facts{
		Score:        attrs.Score(financialData, "datacredito.puntaje"),
		MonthlyDebt:  attrs.Float(financialData, "datacredito.obligaciones.cuota_mensual_total"),
		TotalBalance: attrs.Float(financialData, "cuentas.saldo_total"),
	}
}
