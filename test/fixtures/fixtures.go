package fixtures

import (
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/shopspring/decimal"
)

// Base is the reference instant every fixture is created relative to. It stays close to
// now so the fixtures fall inside the default report windows.
var Base = time.Now().UTC().Truncate(time.Second)

var (
	TestOperator = model.RegisterRequest{
		Username: "operator1",
		Email:    "operator1@example.com",
		Password: "s3cret-pass",
	}

	TestSettings = model.BillingSettings{
		CuitEmpresa:        "30712345678",
		RazonSocialEmpresa: "GF Connector SA",
		PuntoVenta:         3,
		TipoComprobante:    "FB",
		IvaPorDefecto:      decimal.NewFromInt(21),
		FacturarSoloPaid:   true,
		EmailFacturacion:   "facturacion@example.com",
		EnviarComprobante:  true,
		CreditNoteStrategy: model.CreditNoteAutomatic,
	}
)

func NewTestTransaction(id string, status model.TransactionStatus, billing model.BillingStatus, amount int64) model.Transaction {
	return model.Transaction{
		ID:            id,
		ExternalID:    "EXT-" + id,
		Status:        status,
		BillingStatus: billing,
		Amount:        decimal.NewFromInt(amount),
		Currency:      "ARS",
		CreatedAt:     Base.Add(-time.Hour),
		CustomerName:  model.StringPtr("Cliente " + id),
		CustomerDoc:   model.StringPtr("DOC" + id),
	}
}

func PendingBilling(id string, amount int64) model.Transaction {
	t := NewTestTransaction(id, model.StatusPaid, model.BillingPending, amount)
	t.CapturedAt = model.TimePtr(Base.Add(-30 * time.Minute))
	return t
}

func Billed(id string, amount int64) model.Transaction {
	t := PendingBilling(id, amount)
	t.BillingStatus = model.BillingBilled
	t.InvoiceNumber = model.StringPtr("FB-0003-" + id)
	return t
}

func BillingError(id string, amount int64) model.Transaction {
	t := PendingBilling(id, amount)
	t.BillingStatus = model.BillingError
	return t
}

func Authorized(id string, amount int64) model.Transaction {
	return NewTestTransaction(id, model.StatusAuthorized, model.BillingNotApplicable, amount)
}

func Refunded(id string, amount int64) model.Transaction {
	t := NewTestTransaction(id, model.StatusRefunded, model.BillingNotApplicable, amount)
	t.CreditNoteNumber = model.StringPtr("NC-" + id)
	t.RefundReason = model.StringPtr("Customer request")
	t.RefundedAt = model.TimePtr(Base)
	return t
}

// Ledger is a small mixed data set: two awaiting billing, one billed, one in error,
// one authorized and one refunded.
func Ledger() []model.Transaction {
	return []model.Transaction{
		PendingBilling("tx-1", 1500),
		PendingBilling("tx-2", 2500),
		Billed("tx-3", 900),
		BillingError("tx-4", 1200),
		Authorized("tx-5", 300),
		Refunded("tx-6", 700),
	}
}
