package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/gfconnector/billing-console/internal/model"
	xhttp "github.com/gfconnector/billing-console/pkg/http"
)

type DocumentService interface {
	InvoicePDF(ctx context.Context, id string) ([]byte, string, error)
	CreditNotePDF(ctx context.Context, id string) ([]byte, string, error)
	ResendInvoice(ctx context.Context, id string) (model.InvoiceDelivery, error)
}

type DocumentHandler struct {
	svc DocumentService
}

func RegisterDocumentRoutes(e *router.Group, h *DocumentHandler) {
	e.GET("/invoices/pdf/{id}", h.InvoicePDF)
	e.GET("/credit-notes/pdf/{id}", h.CreditNotePDF)
	e.POST("/invoices/resend/{id}", h.ResendInvoice)
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

func (h *DocumentHandler) InvoicePDF(ctx *xhttp.RequestCtx) {
	pdf, name, err := h.svc.InvoicePDF(ctx, pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeFile(ctx, "application/pdf", name, pdf)
}

func (h *DocumentHandler) CreditNotePDF(ctx *xhttp.RequestCtx) {
	pdf, name, err := h.svc.CreditNotePDF(ctx, pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeFile(ctx, "application/pdf", name, pdf)
}

func (h *DocumentHandler) ResendInvoice(ctx *xhttp.RequestCtx) {
	job, err := h.svc.ResendInvoice(ctx, pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusAccepted, job)
}
