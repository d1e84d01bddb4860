package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/projection"
	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// FormatAmount prints an amount with two decimals after its currency code.
func FormatAmount(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = "ARS"
	}
	return currency + " " + amount.StringFixed(2)
}

func badge(a projection.BillingAction) string {
	if a.SubLabel != "" {
		return fmt.Sprintf("%s (%s)", a.Badge, a.SubLabel)
	}
	return string(a.Badge)
}

func actions(a projection.BillingAction) string {
	if len(a.Actions) == 0 {
		return "-"
	}
	names := make([]string, len(a.Actions))
	for i, v := range a.Actions {
		names[i] = string(v)
	}
	return strings.Join(names, ",")
}

func opt(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func optTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(timeLayout)
}

// RenderTable prints one row per transaction. Rows in sel are marked with '*'; sel may be nil.
func RenderTable(w io.Writer, items []model.Transaction, sel *Selection) error {
	tw := newTable(w)
	fmt.Fprintln(tw, " \tID\tEXTERNAL ID\tSTATUS\tBILLING\tAMOUNT\tCUSTOMER\tCREATED\tACTIONS")
	for _, t := range items {
		a := projection.Project(t)
		mark := " "
		if sel != nil && sel.Has(t.ID) {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			mark, t.ID, t.ExternalID, t.Status, badge(a),
			FormatAmount(t.Amount, t.Currency), opt(t.CustomerName),
			t.CreatedAt.Format(timeLayout), actions(a))
	}
	return tw.Flush()
}

// RenderListState prints the table followed by the paging footer.
func RenderListState(w io.Writer, s ListState, sel *Selection) error {
	if s.Failed {
		fmt.Fprintln(w, "No transactions to show.")
	}
	if err := RenderTable(w, s.Items, sel); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "page %d/%d, %d results, page subtotal %s\n",
		s.Params.Page+1, max(s.TotalPages, 1), s.TotalElements, s.PageSubtotal.StringFixed(2))
	return err
}

// RenderDetail prints every field of t and the actions it allows.
func RenderDetail(w io.Writer, t model.Transaction) error {
	a := projection.Project(t)
	tw := newTable(w)
	rows := [][2]string{
		{"ID", t.ID},
		{"External ID", t.ExternalID},
		{"Status", string(t.Status)},
		{"Billing", badge(a)},
		{"Amount", FormatAmount(t.Amount, t.Currency)},
		{"Customer", opt(t.CustomerName)},
		{"Customer doc", opt(t.CustomerDoc)},
		{"Created", t.CreatedAt.Format(timeLayout)},
		{"Captured", optTime(t.CapturedAt)},
		{"Invoice", opt(t.InvoiceNumber)},
		{"Credit note", opt(t.CreditNoteNumber)},
		{"Refund reason", opt(t.RefundReason)},
		{"Refunded", optTime(t.RefundedAt)},
		{"Actions", actions(a)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}

// RenderReview prints the transaction under review with its queue position.
func RenderReview(w io.Writer, wf *ConfirmationWorkflow) error {
	t, ok := wf.Current()
	if !ok {
		_, err := fmt.Fprintln(w, "No transactions pending billing confirmation.")
		return err
	}
	index, total := wf.Position()
	fmt.Fprintf(w, "Pending %d of %d\n", index+1, total)
	if err := RenderDetail(w, t); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "[c]onfirm  [n]ext  [p]revious  [q]uit")
	return err
}

func RenderStats(w io.Writer, s model.DashboardStats) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "Period:\t%s .. %s\n", s.From.Format("2006-01-02"), s.To.Format("2006-01-02"))
	fmt.Fprintf(tw, "Transactions:\t%d\n", s.TotalTransactions)
	fmt.Fprintf(tw, "Total amount:\t%s\n", s.TotalAmount.StringFixed(2))
	fmt.Fprintf(tw, "Paid / Authorized:\t%d / %d\n", s.Paid, s.Authorized)
	fmt.Fprintf(tw, "Refunded / Failed:\t%d / %d\n", s.Refunded, s.Failed)
	fmt.Fprintf(tw, "Pending billing:\t%d\n", s.PendingTransactions)
	fmt.Fprintf(tw, "Billed:\t%d\n", s.BilledTransactions)
	fmt.Fprintf(tw, "Billing errors:\t%d\n", s.ErrorCount)
	fmt.Fprintf(tw, "Invoices / Credit notes:\t%d / %d\n", s.TotalInvoices, s.TotalCreditNotes)
	fmt.Fprintf(tw, "Success rate:\t%.1f%%\n", s.SuccessRate)
	return tw.Flush()
}

func RenderSettings(w io.Writer, s model.BillingSettings) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", s.ID)
	fmt.Fprintf(tw, "CUIT:\t%s\n", s.CuitEmpresa)
	fmt.Fprintf(tw, "Razon social:\t%s\n", s.RazonSocialEmpresa)
	fmt.Fprintf(tw, "Punto de venta:\t%d\n", s.PuntoVenta)
	fmt.Fprintf(tw, "Tipo comprobante:\t%s\n", s.TipoComprobante)
	fmt.Fprintf(tw, "IVA:\t%s%%\n", s.IvaPorDefecto.String())
	fmt.Fprintf(tw, "Solo PAID:\t%t\n", s.FacturarSoloPaid)
	fmt.Fprintf(tw, "Requiere confirmacion:\t%t\n", s.RequireBillingConfirmation)
	fmt.Fprintf(tw, "Notas de credito:\t%s\n", s.CreditNoteStrategy)
	fmt.Fprintf(tw, "Activo:\t%t\n", s.Activo)
	return tw.Flush()
}
