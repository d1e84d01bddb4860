package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	StatusAuthorized                 TransactionStatus = "AUTHORIZED"
	StatusPaid                       TransactionStatus = "PAID"
	StatusFailed                     TransactionStatus = "FAILED"
	StatusRefunded                   TransactionStatus = "REFUNDED"
	StatusPendingBillingConfirmation TransactionStatus = "PENDING_BILLING_CONFIRMATION"
	StatusNoBillingRequired          TransactionStatus = "NO_BILLING_REQUIRED"
)

// TransactionStatuses lists every status in display order.
var TransactionStatuses = []TransactionStatus{
	StatusAuthorized,
	StatusPaid,
	StatusFailed,
	StatusRefunded,
	StatusPendingBillingConfirmation,
	StatusNoBillingRequired,
}

type BillingStatus string

const (
	BillingNotApplicable BillingStatus = "not_applicable"
	BillingPending       BillingStatus = "pending"
	BillingBilled        BillingStatus = "billed"
	BillingError         BillingStatus = "error"
)

var BillingStatuses = []BillingStatus{
	BillingNotApplicable,
	BillingPending,
	BillingBilled,
	BillingError,
}

type Transaction struct {
	ID               string            `json:"id"`
	ExternalID       string            `json:"externalId"`
	Status           TransactionStatus `json:"status"`
	BillingStatus    BillingStatus     `json:"billingStatus,omitempty"`
	Amount           decimal.Decimal   `json:"amount"`
	Currency         string            `json:"currency"`
	CreatedAt        time.Time         `json:"createdAt"`
	CapturedAt       *time.Time        `json:"capturedAt"`
	CustomerName     *string           `json:"customerName"`
	CustomerDoc      *string           `json:"customerDoc"`
	InvoiceNumber    *string           `json:"invoiceNumber,omitempty"`
	CreditNoteNumber *string           `json:"creditNoteNumber"`
	RefundReason     *string           `json:"refundReason,omitempty"`
	RefundedAt       *time.Time        `json:"refundedAt,omitempty"`
}

// EffectiveBillingStatus is the billing status as it applies to reconciliation:
// anything other than a PAID transaction is not applicable.
func (t Transaction) EffectiveBillingStatus() BillingStatus {
	if t.Status != StatusPaid {
		return BillingNotApplicable
	}
	if t.BillingStatus == "" {
		return BillingPending
	}
	return t.BillingStatus
}

// AwaitingBilling reports whether the transaction belongs to the pending-billing queue.
func (t Transaction) AwaitingBilling() bool {
	return t.Status == StatusPaid && (t.BillingStatus == BillingPending || t.BillingStatus == "")
}

func (t Transaction) HasInvoice() bool {
	return t.InvoiceNumber != nil && *t.InvoiceNumber != ""
}

func (t Transaction) HasCreditNote() bool {
	return t.CreditNoteNumber != nil && *t.CreditNoteNumber != ""
}

// Page is one slice of a filtered, sorted transaction listing.
type Page struct {
	Content       []Transaction `json:"content"`
	TotalElements int           `json:"totalElements"`
	TotalPages    int           `json:"totalPages"`
	Number        int           `json:"number"`
	Size          int           `json:"size"`
}

// Subtotal sums the amounts of the transactions on this page.
func (p Page) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range p.Content {
		sum = sum.Add(t.Amount)
	}
	return sum
}

// IssuedDocument is what the invoicing provider returns for an invoice or credit note.
type IssuedDocument struct {
	Number   string    `json:"number"`
	CAE      string    `json:"cae,omitempty"`
	IssuedAt time.Time `json:"issuedAt"`
}

// InitializeResult reports the outcome of the billing status backfill.
type InitializeResult struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count"`
}

func StringPtr(s string) *string {
	return &s
}

func TimePtr(t time.Time) *time.Time {
	return &t
}

// Clone returns a copy that shares no pointers with t.
func (t Transaction) Clone() Transaction {
	t.CapturedAt = clonePtr(t.CapturedAt)
	t.CustomerName = clonePtr(t.CustomerName)
	t.CustomerDoc = clonePtr(t.CustomerDoc)
	t.InvoiceNumber = clonePtr(t.InvoiceNumber)
	t.CreditNoteNumber = clonePtr(t.CreditNoteNumber)
	t.RefundReason = clonePtr(t.RefundReason)
	t.RefundedAt = clonePtr(t.RefundedAt)
	return t
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ActionResult is the body returned by the confirm-billing and refund endpoints.
type ActionResult struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	TransactionID  string `json:"transaction_id"`
	DocumentNumber string `json:"document_number,omitempty"`
	CAE            string `json:"cae,omitempty"`
}
