// Package projection decides which billing badge and actions a transaction offers.
// Every view that shows a transaction goes through Project.
package projection

import "github.com/gfconnector/billing-console/internal/model"

type Badge string

const (
	BadgeRefunded Badge = "Refunded"
	BadgeBilled   Badge = "Billed"
	BadgeError    Badge = "Error"
	BadgePending  Badge = "Pending"
	BadgeNA       Badge = "N/A"
)

type Action string

const (
	ActionDownloadCreditNote Action = "download_credit_note"
	ActionDownloadInvoice    Action = "download_invoice"
	ActionRefund             Action = "process_refund"
	ActionConfirmBilling     Action = "confirm_billing"
)

const (
	SubLabelOnlyPaid    = "Only PAID eligible"
	SubLabelUnavailable = "Unavailable"
)

type BillingAction struct {
	Badge    Badge
	SubLabel string
	Actions  []Action
}

func (a BillingAction) Allows(action Action) bool {
	for _, v := range a.Actions {
		if v == action {
			return true
		}
	}
	return false
}

// Project evaluates the rules top to bottom and returns the first match.
// It reads the raw billing status, so an error shows on any status.
func Project(t model.Transaction) BillingAction {
	switch {
	case t.Status == model.StatusRefunded && t.HasCreditNote():
		return BillingAction{Badge: BadgeRefunded, Actions: []Action{ActionDownloadCreditNote}}
	case t.Status == model.StatusPaid && t.BillingStatus == model.BillingBilled:
		return BillingAction{Badge: BadgeBilled, Actions: []Action{ActionDownloadInvoice, ActionRefund}}
	case t.BillingStatus == model.BillingError:
		return BillingAction{Badge: BadgeError, Actions: []Action{}}
	case t.AwaitingBilling():
		return BillingAction{Badge: BadgePending, Actions: []Action{ActionConfirmBilling}}
	}

	na := BillingAction{Badge: BadgeNA, SubLabel: SubLabelUnavailable, Actions: []Action{}}
	if t.Status == model.StatusAuthorized {
		na.SubLabel = SubLabelOnlyPaid
	}
	return na
}
