package model

import "time"

// InvoiceDelivery asks the invoicing provider to e-mail an already issued invoice again.
type InvoiceDelivery struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId"`
	InvoiceNumber string    `json:"invoiceNumber"`
	Email         string    `json:"email,omitempty"`
	RequestedAt   time.Time `json:"requestedAt"`
}
