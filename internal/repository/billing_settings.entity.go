package repository

import (
	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/pkg/pg"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BillingSettingsEntity struct {
	pg.Model
	CuitEmpresa                string          `gorm:"column:cuit_empresa;size:11;not null"`
	RazonSocialEmpresa         string          `gorm:"column:razon_social_empresa;not null"`
	PuntoVenta                 int             `gorm:"column:punto_venta;not null"`
	TipoComprobante            string          `gorm:"column:tipo_comprobante;size:2;not null"`
	IvaPorDefecto              decimal.Decimal `gorm:"column:iva_por_defecto;type:numeric(5,2);not null"`
	FacturarSoloPaid           bool            `gorm:"column:facturar_solo_paid;not null"`
	RequireBillingConfirmation bool            `gorm:"column:require_billing_confirmation;not null"`
	ConsumidorFinalPorDefecto  bool            `gorm:"column:consumidor_final_por_defecto;not null"`
	CuitConsumidorFinal        string          `gorm:"column:cuit_consumidor_final;size:11"`
	RazonSocialConsumidorFinal string          `gorm:"column:razon_social_consumidor_final"`
	EmailFacturacion           string          `gorm:"column:email_facturacion"`
	EnviarComprobante          bool            `gorm:"column:enviar_comprobante;not null"`
	CreditNoteStrategy         string          `gorm:"column:credit_note_strategy;size:16"`
	Activo                     bool            `gorm:"column:activo;not null;index"`
	Descripcion                string          `gorm:"column:descripcion"`
}

func (BillingSettingsEntity) TableName() string {
	return "billing_settings"
}

func toBillingSettingsEntity(m model.BillingSettings) *BillingSettingsEntity {
	e := &BillingSettingsEntity{
		CuitEmpresa:                m.CuitEmpresa,
		RazonSocialEmpresa:         m.RazonSocialEmpresa,
		PuntoVenta:                 m.PuntoVenta,
		TipoComprobante:            m.TipoComprobante,
		IvaPorDefecto:              m.IvaPorDefecto,
		FacturarSoloPaid:           m.FacturarSoloPaid,
		RequireBillingConfirmation: m.RequireBillingConfirmation,
		ConsumidorFinalPorDefecto:  m.ConsumidorFinalPorDefecto,
		CuitConsumidorFinal:        m.CuitConsumidorFinal,
		RazonSocialConsumidorFinal: m.RazonSocialConsumidorFinal,
		EmailFacturacion:           m.EmailFacturacion,
		EnviarComprobante:          m.EnviarComprobante,
		CreditNoteStrategy:         string(m.CreditNoteStrategy),
		Activo:                     m.Activo,
		Descripcion:                m.Descripcion,
	}
	if id, err := uuid.Parse(m.ID); err == nil {
		e.ID = id
	}
	e.CreatedAt = m.CreatedAt
	e.UpdatedAt = m.UpdatedAt
	return e
}

func toBillingSettingsModel(e *BillingSettingsEntity) model.BillingSettings {
	return model.BillingSettings{
		ID:                         e.ID.String(),
		CuitEmpresa:                e.CuitEmpresa,
		RazonSocialEmpresa:         e.RazonSocialEmpresa,
		PuntoVenta:                 e.PuntoVenta,
		TipoComprobante:            e.TipoComprobante,
		IvaPorDefecto:              e.IvaPorDefecto,
		FacturarSoloPaid:           e.FacturarSoloPaid,
		RequireBillingConfirmation: e.RequireBillingConfirmation,
		ConsumidorFinalPorDefecto:  e.ConsumidorFinalPorDefecto,
		CuitConsumidorFinal:        e.CuitConsumidorFinal,
		RazonSocialConsumidorFinal: e.RazonSocialConsumidorFinal,
		EmailFacturacion:           e.EmailFacturacion,
		EnviarComprobante:          e.EnviarComprobante,
		CreditNoteStrategy:         model.CreditNoteStrategy(e.CreditNoteStrategy),
		Activo:                     e.Activo,
		Descripcion:                e.Descripcion,
		CreatedAt:                  e.CreatedAt,
		UpdatedAt:                  e.UpdatedAt,
	}
}
