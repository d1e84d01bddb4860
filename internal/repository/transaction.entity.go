package repository

import (
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/shopspring/decimal"
)

type TransactionEntity struct {
	ID               string          `gorm:"primaryKey;column:id;size:64"`
	ExternalID       string          `gorm:"column:external_id;not null;index"`
	Status           string          `gorm:"column:status;not null;index"`
	BillingStatus    *string         `gorm:"column:billing_status;index"`
	Amount           decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	Currency         string          `gorm:"column:currency;size:3;not null"`
	CreatedAt        time.Time       `gorm:"column:created_at;not null;index"`
	UpdatedAt        time.Time       `gorm:"column:updated_at"`
	CapturedAt       *time.Time      `gorm:"column:captured_at"`
	CustomerName     *string         `gorm:"column:customer_name"`
	CustomerDoc      *string         `gorm:"column:customer_doc"`
	InvoiceNumber    *string         `gorm:"column:invoice_number"`
	CreditNoteNumber *string         `gorm:"column:credit_note_number"`
	RefundReason     *string         `gorm:"column:refund_reason"`
	RefundedAt       *time.Time      `gorm:"column:refunded_at"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func toTransactionEntity(m model.Transaction) *TransactionEntity {
	e := &TransactionEntity{
		ID:               m.ID,
		ExternalID:       m.ExternalID,
		Status:           string(m.Status),
		Amount:           m.Amount,
		Currency:         m.Currency,
		CreatedAt:        m.CreatedAt.UTC(),
		CapturedAt:       utcPtr(m.CapturedAt),
		CustomerName:     m.CustomerName,
		CustomerDoc:      m.CustomerDoc,
		InvoiceNumber:    m.InvoiceNumber,
		CreditNoteNumber: m.CreditNoteNumber,
		RefundReason:     m.RefundReason,
		RefundedAt:       utcPtr(m.RefundedAt),
	}
	if m.BillingStatus != "" {
		e.BillingStatus = model.StringPtr(string(m.BillingStatus))
	}
	return e
}

func toTransactionModel(e *TransactionEntity) model.Transaction {
	m := model.Transaction{
		ID:               e.ID,
		ExternalID:       e.ExternalID,
		Status:           model.TransactionStatus(e.Status),
		Amount:           e.Amount,
		Currency:         e.Currency,
		CreatedAt:        e.CreatedAt.UTC(),
		CapturedAt:       utcPtr(e.CapturedAt),
		CustomerName:     e.CustomerName,
		CustomerDoc:      e.CustomerDoc,
		InvoiceNumber:    e.InvoiceNumber,
		CreditNoteNumber: e.CreditNoteNumber,
		RefundReason:     e.RefundReason,
		RefundedAt:       utcPtr(e.RefundedAt),
	}
	if e.BillingStatus != nil {
		m.BillingStatus = model.BillingStatus(*e.BillingStatus)
	}
	return m
}

func toTransactionModels(entities []*TransactionEntity) []model.Transaction {
	models := make([]model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
