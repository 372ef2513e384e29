package mexico

import "creditflow/internal/country"

type bureauReport struct {
	CreditScore      *float64 `json:"credit_score" validate:"required,gte=300,lte=850"`
	TotalMonthlyDebt *float64 `json:"total_monthly_debt" validate:"required,gte=0"`
}

type bankAccounts struct {
	TotalBalance *float64 `json:"total_balance" validate:"required"`
}

type payload struct {
	BureauReport *bureauReport `json:"bureau_report" validate:"required"`
	BankAccounts *bankAccounts `json:"bank_accounts" validate:"required"`
}

func NewPayloadValidator() country.PayloadValidator {
	return country.NewStructPayload[payload]()
}
