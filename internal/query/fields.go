package query

import (
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/shopspring/decimal"
)

type decimalValue struct {
	decimal.Decimal
}

type sortKey func(model.Transaction) any

var sortKeys = map[string]sortKey{
	"id":         func(t model.Transaction) any { return t.ID },
	"externalId": func(t model.Transaction) any { return t.ExternalID },
	"status":     func(t model.Transaction) any { return string(t.Status) },
	"billingStatus": func(t model.Transaction) any {
		if t.BillingStatus == "" {
			return nil
		}
		return string(t.BillingStatus)
	},
	"amount":           func(t model.Transaction) any { return decimalValue{t.Amount} },
	"currency":         func(t model.Transaction) any { return t.Currency },
	"createdAt":        func(t model.Transaction) any { return t.CreatedAt },
	"capturedAt":       func(t model.Transaction) any { return timeOrNil(t.CapturedAt) },
	"refundedAt":       func(t model.Transaction) any { return timeOrNil(t.RefundedAt) },
	"customerName":     func(t model.Transaction) any { return stringOrNil(t.CustomerName) },
	"customerDoc":      func(t model.Transaction) any { return stringOrNil(t.CustomerDoc) },
	"invoiceNumber":    func(t model.Transaction) any { return stringOrNil(t.InvoiceNumber) },
	"creditNoteNumber": func(t model.Transaction) any { return stringOrNil(t.CreditNoteNumber) },
	"refundReason":     func(t model.Transaction) any { return stringOrNil(t.RefundReason) },
}

// SortFields lists the field names accepted as sortBy.
func SortFields() []string {
	out := make([]string, 0, len(sortKeys))
	for k := range sortKeys {
		out = append(out, k)
	}
	return out
}

func stringOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
