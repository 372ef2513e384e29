package colombia

import "creditflow/internal/country"

type obligaciones struct {
	CuotaMensualTotal *float64 `json:"cuota_mensual_total" validate:"required,gte=0"`
}

type datacredito struct {
	Puntaje      *float64      `json:"puntaje" validate:"required,gte=150,lte=950"`
	Obligaciones *obligaciones `json:"obligaciones" validate:"required"`
}

type cuentas struct {
	SaldoTotal *float64 `json:"saldo_total" validate:"required"`
}

type payload struct {
	Datacredito *datacredito `json:"datacredito" validate:"required"`
	Cuentas     *cuentas     `json:"cuentas" validate:"required"`
}

func NewPayloadValidator() country.PayloadValidator {
	return country.NewStructPayload[payload]()
}
