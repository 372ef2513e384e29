// Package evaluation holds the credit decision shape shared by every country.
// Everything here is pure: no I/O, no clock, no randomness.
package evaluation

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

type RiskTier string

const (
	RiskLow    RiskTier = "LOW"
	RiskMedium RiskTier = "MEDIUM"
	RiskHigh   RiskTier = "HIGH"
)

// Input is the request side of an evaluation.
type Input struct {
	RequestedAmount decimal.Decimal
	MonthlyIncome   decimal.Decimal
}

// Facts are the bureau figures a country extracts from its payload.
type Facts struct {
	Score        int
	MonthlyDebt  float64
	TotalBalance float64
}

// Tier is a (score, DTI) threshold pair.
type Tier struct {
	MinScore int
	MaxDTI   float64
}

// Recommendation parameterizes the alternative amount offered on rejection.
type Recommendation struct {
	TargetDTI      float64
	IncomeMultiple int64
}

// Policy is a country's full set of thresholds.
type Policy struct {
	MinScore       int
	MaxDTI         float64
	AmountLimit    decimal.Decimal
	MinIncomeRatio float64
	BalanceFloor   float64
	Low            Tier
	Medium         Tier
	// ApproveMedium allows MEDIUM risk requests to be approved.
	ApproveMedium  bool
	Recommendation Recommendation
}

// Checks records the five eligibility checks.
type Checks struct {
	CreditScoreOK     bool
	DebtToIncomeOK    bool
	AmountWithinLimit bool
	IncomeSufficient  bool
	BalanceOK         bool
}

func (c Checks) AllPassed() bool {
	return c.CreditScoreOK && c.DebtToIncomeOK && c.AmountWithinLimit && c.IncomeSufficient && c.BalanceOK
}

func (c Checks) AsMap() map[string]bool {
	return map[string]bool{
		"creditScoreOk":     c.CreditScoreOK,
		"debtToIncomeOk":    c.DebtToIncomeOK,
		"amountWithinLimit": c.AmountWithinLimit,
		"incomeSufficient":  c.IncomeSufficient,
		"balanceOk":         c.BalanceOK,
	}
}

// Result is the outcome of one evaluation.
type Result struct {
	Approved     bool
	Score        int
	RiskTier     RiskTier
	DebtToIncome float64
	// RecommendedAmount is set only when Approved is false.
	RecommendedAmount *decimal.Decimal
	Reason            string
	Checks            Checks
}

// AuditMetadata renders the result for the transition audit record. An
// infinite DTI (no income) is recorded as null.
func (r Result) AuditMetadata() map[string]any {
	md := map[string]any{
		"score":     r.Score,
		"risk_tier": string(r.RiskTier),
		"reason":    r.Reason,
		"checks":    r.Checks.AsMap(),
		"approved":  r.Approved,
	}
	if math.IsInf(r.DebtToIncome, 0) || math.IsNaN(r.DebtToIncome) {
		md["debt_to_income"] = nil
	} else {
		md["debt_to_income"] = math.Round(r.DebtToIncome*10000) / 10000
	}
	if r.RecommendedAmount != nil {
		md["recommended_amount"] = r.RecommendedAmount.StringFixed(2)
	}
	return md
}

// DebtToIncome is monthly debt over monthly income, +Inf when income <= 0.
func DebtToIncome(monthlyDebt float64, monthlyIncome decimal.Decimal) float64 {
	income := monthlyIncome.InexactFloat64()
	if income <= 0 {
		return math.Inf(1)
	}
	return monthlyDebt / income
}

// Tiering assigns LOW, MEDIUM or HIGH from the two threshold pairs.
func Tiering(score int, dti float64, low, medium Tier) RiskTier {
	switch {
	case score >= low.MinScore && dti <= low.MaxDTI:
		return RiskLow
	case score >= medium.MinScore && dti <= medium.MaxDTI:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// RecommendedAmount is min(annualized affordability at the target DTI,
// income multiple, ceiling), clamped to >= 0 and rounded to cents.
func RecommendedAmount(monthlyIncome decimal.Decimal, monthlyDebt float64, rec Recommendation, ceiling decimal.Decimal) decimal.Decimal {
	debt := decimal.NewFromFloat(monthlyDebt)
	affordable := monthlyIncome.Mul(decimal.NewFromFloat(rec.TargetDTI)).Sub(debt).Mul(decimal.NewFromInt(12))
	byIncome := monthlyIncome.Mul(decimal.NewFromInt(rec.IncomeMultiple))

	amount := decimal.Min(affordable, byIncome, ceiling)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(2)
}

// Evaluate runs the five checks and tiering against policy.
func Evaluate(policy Policy, in Input, facts Facts) Result {
	dti := DebtToIncome(facts.MonthlyDebt, in.MonthlyIncome)
	tier := Tiering(facts.Score, dti, policy.Low, policy.Medium)

	minIncome := in.RequestedAmount.Mul(decimal.NewFromFloat(policy.MinIncomeRatio))
	checks := Checks{
		CreditScoreOK:     facts.Score >= policy.MinScore,
		DebtToIncomeOK:    dti <= policy.MaxDTI,
		AmountWithinLimit: in.RequestedAmount.LessThanOrEqual(policy.AmountLimit),
		IncomeSufficient:  in.MonthlyIncome.GreaterThanOrEqual(minIncome),
		BalanceOK:         facts.TotalBalance >= policy.BalanceFloor,
	}

	tierOK := tier == RiskLow || (tier == RiskMedium && policy.ApproveMedium)
	approved := checks.AllPassed() && tierOK

	result := Result{
		Approved:     approved,
		Score:        facts.Score,
		RiskTier:     tier,
		DebtToIncome: dti,
		Checks:       checks,
	}

	if approved {
		result.Reason = fmt.Sprintf("All checks passed, risk tier %s", tier)
		return result
	}

	var reasons []string
	if !checks.CreditScoreOK {
		reasons = append(reasons, fmt.Sprintf("Credit score %d < minimum %d", facts.Score, policy.MinScore))
	}
	if !checks.DebtToIncomeOK {
		reasons = append(reasons, fmt.Sprintf("Debt-to-income %s > maximum %.2f", formatRatio(dti), policy.MaxDTI))
	}
	if !checks.AmountWithinLimit {
		reasons = append(reasons, fmt.Sprintf("Requested amount %s > limit %s", in.RequestedAmount.String(), policy.AmountLimit.String()))
	}
	if !checks.IncomeSufficient {
		reasons = append(reasons, fmt.Sprintf("Monthly income %s < required %s (%.0f%% of requested amount)",
			in.MonthlyIncome.String(), minIncome.Round(2).String(), policy.MinIncomeRatio*100))
	}
	if !checks.BalanceOK {
		reasons = append(reasons, fmt.Sprintf("Total balance %s < floor %s", formatAmount(facts.TotalBalance), formatAmount(policy.BalanceFloor)))
	}
	switch {
	case tier == RiskHigh:
		reasons = append(reasons, "Risk tier HIGH")
	case !tierOK:
		reasons = append(reasons, fmt.Sprintf("Risk tier %s not eligible for approval", tier))
	}

	recommended := RecommendedAmount(in.MonthlyIncome, facts.MonthlyDebt, policy.Recommendation, policy.AmountLimit)
	result.RecommendedAmount = &recommended
	result.Reason = strings.Join(reasons, "; ")
	return result
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "+Inf (no income)"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).String()
}
