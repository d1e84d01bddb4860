// Package mockdata generates the deterministic transaction set used in mock mode.
package mockdata

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/shopspring/decimal"
)

const DefaultSize = 137

var (
	statuses   = []model.TransactionStatus{model.StatusAuthorized, model.StatusPaid, model.StatusFailed, model.StatusRefunded}
	currencies = []string{"ARS", "BRL"}
)

// Generate returns n transactions with ids "1".."n", the i-th created i hours before now.
func Generate(n int, now time.Time) []model.Transaction {
	out := make([]model.Transaction, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		out = append(out, Transaction(i, now))
	}
	return out
}

func Transaction(i int, now time.Time) model.Transaction {
	status := statuses[i%len(statuses)]
	t := model.Transaction{
		ID:            strconv.Itoa(i),
		ExternalID:    fmt.Sprintf("EXT-%d", 100000+i),
		Status:        status,
		BillingStatus: model.BillingNotApplicable,
		Amount:        decimal.NewFromInt(int64((i*1234)%99999 + 100)).Round(2),
		Currency:      currencies[i%len(currencies)],
		CreatedAt:     now.Add(-time.Duration(i) * time.Hour),
		CustomerName:  model.StringPtr(fmt.Sprintf("Cliente %d", i)),
		CustomerDoc:   model.StringPtr(fmt.Sprintf("DOC%d", 20000000+i)),
	}

	switch status {
	case model.StatusPaid:
		t.CapturedAt = model.TimePtr(now.Add(-time.Duration(i) * 3500 * time.Second))
		switch {
		case i%4 == 0:
			t.BillingStatus = model.BillingBilled
			t.InvoiceNumber = model.StringPtr(fmt.Sprintf("FC-0001-%08d", i))
		case i%5 == 0:
			t.BillingStatus = model.BillingError
		default:
			t.BillingStatus = model.BillingPending
		}
	case model.StatusRefunded:
		t.CreditNoteNumber = model.StringPtr(fmt.Sprintf("NC-%d", 1000+i))
		t.RefundReason = model.StringPtr("Refund requested by customer")
		t.RefundedAt = model.TimePtr(t.CreatedAt.Add(30 * time.Minute))
	}
	return t
}
