package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	TotalTransactions   int             `json:"totalTransactions"`
	TotalAmount         decimal.Decimal `json:"totalAmount"`
	Paid                int             `json:"paidTransactions"`
	Authorized          int             `json:"authorizedTransactions"`
	Refunded            int             `json:"refundedTransactions"`
	Failed              int             `json:"failedTransactions"`
	PendingTransactions int             `json:"pendingTransactions"`
	BilledTransactions  int             `json:"billedTransactions"`
	ErrorCount          int             `json:"errorCount"`
	TotalInvoices       int             `json:"totalInvoices"`
	TotalCreditNotes    int             `json:"totalCreditNotes"`
	SuccessRate         float64         `json:"successRate"`
	From                time.Time       `json:"from"`
	To                  time.Time       `json:"to"`
}

type DailyStats struct {
	Date   string          `json:"date"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type TransactionSummary struct {
	ID            string            `json:"id"`
	ExternalID    string            `json:"externalId"`
	Status        TransactionStatus `json:"status"`
	BillingStatus BillingStatus     `json:"billingStatus,omitempty"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type ReconciliationReport struct {
	StartDate                string               `json:"startDate"`
	EndDate                  string               `json:"endDate"`
	TotalTransactions        int                  `json:"totalTransactions"`
	ReconciledTransactions   int                  `json:"reconciledTransactions"`
	UnreconciledTransactions int                  `json:"unreconciledTransactions"`
	ReconciliationRate       float64              `json:"reconciliationRate"`
	OrphanTransactions       []TransactionSummary `json:"orphanTransactions"`
	ErrorTransactions        []TransactionSummary `json:"errorTransactions"`
}

func (t Transaction) Summary() TransactionSummary {
	return TransactionSummary{
		ID:            t.ID,
		ExternalID:    t.ExternalID,
		Status:        t.Status,
		BillingStatus: t.BillingStatus,
		Amount:        t.Amount,
		Currency:      t.Currency,
		CreatedAt:     t.CreatedAt,
	}
}
