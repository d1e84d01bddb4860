package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"sort"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/query"
	"github.com/shopspring/decimal"
)

const (
	dashboardDefaultDays = 30
	reportDefaultMonths  = 1
)

var csvHeader = []string{
	"ID", "External ID", "Amount", "Currency", "Status", "Billing Status",
	"Customer Doc", "Invoice Number", "Credit Note Number", "Created At",
}

type ReportService struct {
	repo TransactionRepository
	now  func() time.Time
}

func NewReportService(repo TransactionRepository) *ReportService {
	return &ReportService{repo: repo, now: time.Now}
}

// Range resolves optional report bounds. A missing start defaults to back days or
// months before today and a missing end to today; both are widened to whole days.
func (s *ReportService) rangeOf(from, to *time.Time, days, months int) (time.Time, time.Time) {
	now := s.now().UTC()
	start := now.AddDate(0, -months, -days)
	end := now
	if from != nil {
		start = *from
	}
	if to != nil {
		end = *to
	}
	return query.DayStart(start), query.DayEnd(end)
}

func (s *ReportService) between(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Transaction, 0, len(all))
	for _, t := range all {
		if !t.CreatedAt.Before(start) && !t.CreatedAt.After(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *ReportService) DashboardStats(ctx context.Context, from, to *time.Time) (model.DashboardStats, error) {
	start, end := s.rangeOf(from, to, dashboardDefaultDays, 0)
	txs, err := s.between(ctx, start, end)
	if err != nil {
		return model.DashboardStats{}, err
	}

	st := model.DashboardStats{TotalAmount: decimal.Zero, From: start, To: end}
	for _, t := range txs {
		st.TotalTransactions++
		st.TotalAmount = st.TotalAmount.Add(t.Amount)
		switch t.Status {
		case model.StatusPaid:
			st.Paid++
		case model.StatusAuthorized:
			st.Authorized++
		case model.StatusRefunded:
			st.Refunded++
		case model.StatusFailed:
			st.Failed++
		}
		switch t.BillingStatus {
		case model.BillingPending:
			st.PendingTransactions++
		case model.BillingBilled:
			st.BilledTransactions++
		case model.BillingError:
			st.ErrorCount++
		}
		if t.HasInvoice() {
			st.TotalInvoices++
		}
		if t.HasCreditNote() {
			st.TotalCreditNotes++
		}
	}
	st.SuccessRate = percent(st.Paid+st.Authorized, st.TotalTransactions)
	return st, nil
}

// TransactionsByDay groups by UTC calendar day, oldest first.
func (s *ReportService) TransactionsByDay(ctx context.Context, from, to *time.Time) ([]model.DailyStats, error) {
	start, end := s.rangeOf(from, to, dashboardDefaultDays, 0)
	txs, err := s.between(ctx, start, end)
	if err != nil {
		return nil, err
	}
	byDay := map[string]*model.DailyStats{}
	for _, t := range txs {
		day := t.CreatedAt.UTC().Format("2006-01-02")
		d, ok := byDay[day]
		if !ok {
			d = &model.DailyStats{Date: day, Amount: decimal.Zero}
			byDay[day] = d
		}
		d.Count++
		d.Amount = d.Amount.Add(t.Amount)
	}
	out := make([]model.DailyStats, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// Reconciliation counts billed transactions as reconciled. Orphans are PAID and still
// pending, errors are FAILED.
func (s *ReportService) Reconciliation(ctx context.Context, from, to *time.Time) (model.ReconciliationReport, error) {
	start, end := s.rangeOf(from, to, 0, reportDefaultMonths)
	txs, err := s.between(ctx, start, end)
	if err != nil {
		return model.ReconciliationReport{}, err
	}
	rep := model.ReconciliationReport{
		StartDate:          start.Format("2006-01-02"),
		EndDate:            end.Format("2006-01-02"),
		TotalTransactions:  len(txs),
		OrphanTransactions: []model.TransactionSummary{},
		ErrorTransactions:  []model.TransactionSummary{},
	}
	for _, t := range txs {
		if t.BillingStatus == model.BillingBilled {
			rep.ReconciledTransactions++
		}
		if t.AwaitingBilling() {
			rep.OrphanTransactions = append(rep.OrphanTransactions, t.Summary())
		}
		if t.Status == model.StatusFailed {
			rep.ErrorTransactions = append(rep.ErrorTransactions, t.Summary())
		}
	}
	rep.UnreconciledTransactions = rep.TotalTransactions - rep.ReconciledTransactions
	rep.ReconciliationRate = percent(rep.ReconciledTransactions, rep.TotalTransactions)
	return rep, nil
}

// ExportTransactionsCSV renders the transactions in range, optionally of one status, as CSV.
func (s *ReportService) ExportTransactionsCSV(ctx context.Context, from, to *time.Time, status model.TransactionStatus) ([]byte, error) {
	start, end := s.rangeOf(from, to, 0, reportDefaultMonths)
	txs, err := s.between(ctx, start, end)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, t := range txs {
		if status != "" && t.Status != status {
			continue
		}
		row := []string{
			t.ID,
			t.ExternalID,
			t.Amount.StringFixed(2),
			t.Currency,
			string(t.Status),
			string(t.BillingStatus),
			deref(t.CustomerDoc),
			deref(t.InvoiceNumber),
			deref(t.CreditNoteNumber),
			t.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
