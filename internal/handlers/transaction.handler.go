package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/query"
	xhttp "github.com/gfconnector/billing-console/pkg/http"
)

type TransactionService interface {
	List(ctx context.Context, p query.Params) (model.Page, error)
	ListPending(ctx context.Context, page, size int) (model.Page, error)
	Get(ctx context.Context, id string) (model.Transaction, error)
	InitializeBillingStatus(ctx context.Context) (model.InitializeResult, error)
	ResetErrorToPending(ctx context.Context) (model.InitializeResult, error)
	ConfirmBilling(ctx context.Context, id string) (model.ActionResult, error)
	Refund(ctx context.Context, id, reason string) (model.ActionResult, error)
}

type TransactionHandler struct {
	svc TransactionService
}

func RegisterTransactionRoutes(e *router.Group, h *TransactionHandler) {
	e.GET("/transactions/list-native", h.ListTransactions)
	e.GET("/transactions/pending-billing-confirmation", h.ListPending)
	e.POST("/transactions/initialize-billing-status", h.InitializeBillingStatus)
	e.POST("/transactions/reset-error-to-pending", h.ResetErrorToPending)
	e.GET("/transactions/{id}", h.GetTransaction)
	e.POST("/transactions/{id}/confirm-billing", h.ConfirmBilling)
	e.POST("/credit-notes/refund/{id}", h.Refund)
}

func NewTransactionHandler(svc TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

/* --------------------------------- Routes ----------------------------------- */

func (h *TransactionHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	p := query.ParseParams(queryValues(ctx))
	page, err := h.svc.List(ctx, p)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, page)
}

func (h *TransactionHandler) ListPending(ctx *xhttp.RequestCtx) {
	page, err := h.svc.ListPending(ctx, queryInt(ctx, "page", 0), queryInt(ctx, "size", query.DefaultSize))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, page)
}

func (h *TransactionHandler) GetTransaction(ctx *xhttp.RequestCtx) {
	t, err := h.svc.Get(ctx, pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, t)
}

func (h *TransactionHandler) InitializeBillingStatus(ctx *xhttp.RequestCtx) {
	res, err := h.svc.InitializeBillingStatus(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}

func (h *TransactionHandler) ResetErrorToPending(ctx *xhttp.RequestCtx) {
	res, err := h.svc.ResetErrorToPending(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}

func (h *TransactionHandler) ConfirmBilling(ctx *xhttp.RequestCtx) {
	res, err := h.svc.ConfirmBilling(ctx, pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}

// Refund takes the reason from the refundReason query parameter.
func (h *TransactionHandler) Refund(ctx *xhttp.RequestCtx) {
	res, err := h.svc.Refund(ctx, pathParam(ctx, "id"), queryParam(ctx, "refundReason"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, res)
}
