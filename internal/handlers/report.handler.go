package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/query"
	xhttp "github.com/gfconnector/billing-console/pkg/http"
)

type ReportService interface {
	DashboardStats(ctx context.Context, from, to *time.Time) (model.DashboardStats, error)
	TransactionsByDay(ctx context.Context, from, to *time.Time) ([]model.DailyStats, error)
	Reconciliation(ctx context.Context, from, to *time.Time) (model.ReconciliationReport, error)
	ExportTransactionsCSV(ctx context.Context, from, to *time.Time, status model.TransactionStatus) ([]byte, error)
}

type ReportHandler struct {
	svc ReportService
	now func() time.Time
}

func RegisterReportRoutes(e *router.Group, h *ReportHandler) {
	e.GET("/dashboard/stats", h.DashboardStats)
	e.GET("/dashboard/transactions-by-day", h.TransactionsByDay)
	e.GET("/reports/reconciliation", h.Reconciliation)
	e.GET("/reports/transactions/export", h.ExportTransactions)
}

func NewReportHandler(svc ReportService) *ReportHandler {
	return &ReportHandler{svc: svc, now: time.Now}
}

// dateRange reads startDate and endDate, either RFC3339 or YYYY-MM-DD. Garbage is ignored.
func dateRange(ctx *xhttp.RequestCtx) (*time.Time, *time.Time) {
	return query.ParseTime(queryParam(ctx, "startDate")), query.ParseTime(queryParam(ctx, "endDate"))
}

func (h *ReportHandler) DashboardStats(ctx *xhttp.RequestCtx) {
	from, to := dateRange(ctx)
	stats, err := h.svc.DashboardStats(ctx, from, to)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, stats)
}

func (h *ReportHandler) TransactionsByDay(ctx *xhttp.RequestCtx) {
	from, to := dateRange(ctx)
	days, err := h.svc.TransactionsByDay(ctx, from, to)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, days)
}

func (h *ReportHandler) Reconciliation(ctx *xhttp.RequestCtx) {
	from, to := dateRange(ctx)
	rep, err := h.svc.Reconciliation(ctx, from, to)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, rep)
}

func (h *ReportHandler) ExportTransactions(ctx *xhttp.RequestCtx) {
	if f := queryParam(ctx, "format"); f != "" && !strings.EqualFold(f, "csv") {
		writeError(ctx, xhttp.StatusBadRequest, "unsupported format "+f)
		return
	}
	from, to := dateRange(ctx)
	status := model.TransactionStatus(strings.ToUpper(queryParam(ctx, "status")))
	body, err := h.svc.ExportTransactionsCSV(ctx, from, to, status)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	name := "transacciones_" + h.now().UTC().Format("2006-01-02") + ".csv"
	writeFile(ctx, "text/csv; charset=utf-8", name, body)
}
