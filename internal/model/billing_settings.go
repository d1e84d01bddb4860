package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreditNoteStrategy string

const (
	CreditNoteAutomatic CreditNoteStrategy = "automatic"
	CreditNoteManual    CreditNoteStrategy = "manual"
	CreditNoteStub      CreditNoteStrategy = "stub"
)

// BillingSettings holds the issuer data used for every invoice. Only one row is active.
type BillingSettings struct {
	ID                         string             `json:"id"`
	CuitEmpresa                string             `json:"cuitEmpresa" validate:"required,len=11,numeric"`
	RazonSocialEmpresa         string             `json:"razonSocialEmpresa" validate:"required,max=200"`
	PuntoVenta                 int                `json:"puntoVenta" validate:"required,min=1,max=99999"`
	TipoComprobante            string             `json:"tipoComprobante" validate:"required,oneof=FA FB FC"`
	IvaPorDefecto              decimal.Decimal    `json:"ivaPorDefecto"`
	FacturarSoloPaid           bool               `json:"facturarSoloPaid"`
	RequireBillingConfirmation bool               `json:"requireBillingConfirmation"`
	ConsumidorFinalPorDefecto  bool               `json:"consumidorFinalPorDefecto"`
	CuitConsumidorFinal        string             `json:"cuitConsumidorFinal" validate:"omitempty,len=11,numeric"`
	RazonSocialConsumidorFinal string             `json:"razonSocialConsumidorFinal"`
	EmailFacturacion           string             `json:"emailFacturacion" validate:"omitempty,email"`
	EnviarComprobante          bool               `json:"enviarComprobante"`
	CreditNoteStrategy         CreditNoteStrategy `json:"creditNoteStrategy" validate:"omitempty,oneof=automatic manual stub"`
	Activo                     bool               `json:"activo"`
	Descripcion                string             `json:"descripcion"`
	CreatedAt                  time.Time          `json:"createdAt"`
	UpdatedAt                  time.Time          `json:"updatedAt"`
}

// DefaultBillingSettings returns the settings created when none are active yet.
func DefaultBillingSettings() BillingSettings {
	return BillingSettings{
		CuitEmpresa:                "20123456789",
		RazonSocialEmpresa:         "Empresa Demo",
		PuntoVenta:                 1,
		TipoComprobante:            "FB",
		IvaPorDefecto:              decimal.NewFromInt(21),
		FacturarSoloPaid:           true,
		RequireBillingConfirmation: false,
		ConsumidorFinalPorDefecto:  true,
		CuitConsumidorFinal:        "00000000000",
		RazonSocialConsumidorFinal: "Consumidor Final",
		EnviarComprobante:          true,
		CreditNoteStrategy:         CreditNoteStub,
		Activo:                     true,
		Descripcion:                "Default billing settings",
	}
}
