package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/gfconnector/billing-console/internal/model"
	xhttp "github.com/gfconnector/billing-console/pkg/http"
)

type SettingsService interface {
	Active(ctx context.Context) (model.BillingSettings, error)
	List(ctx context.Context) ([]model.BillingSettings, error)
	InitDefault(ctx context.Context) (model.BillingSettings, error)
	Create(ctx context.Context, in model.BillingSettings) (model.BillingSettings, error)
	Update(ctx context.Context, id string, in model.BillingSettings) (model.BillingSettings, error)
	Activate(ctx context.Context, id string) (model.BillingSettings, error)
}

type SettingsHandler struct {
	svc SettingsService
}

func RegisterSettingsRoutes(e *router.Group, h *SettingsHandler) {
	e.GET("/billing-settings", h.List)
	e.GET("/billing-settings/active", h.Active)
	e.POST("/billing-settings/init-default", h.InitDefault)
	e.POST("/billing-settings", h.Create)
	e.PUT("/billing-settings/{id}", h.Update)
	e.POST("/billing-settings/{id}/activate", h.Activate)
}

func NewSettingsHandler(svc SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

func (h *SettingsHandler) List(ctx *xhttp.RequestCtx) {
	items, err := h.svc.List(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, items)
}

func (h *SettingsHandler) Active(ctx *xhttp.RequestCtx) {
	s, err := h.svc.Active(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, s)
}

func (h *SettingsHandler) InitDefault(ctx *xhttp.RequestCtx) {
	s, err := h.svc.InitDefault(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, s)
}

func (h *SettingsHandler) Create(ctx *xhttp.RequestCtx) {
	var in model.BillingSettings
	if err := readJSON(ctx, &in); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	s, err := h.svc.Create(ctx, in)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, s)
}

func (h *SettingsHandler) Update(ctx *xhttp.RequestCtx) {
	var in model.BillingSettings
	if err := readJSON(ctx, &in); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	s, err := h.svc.Update(ctx, pathParam(ctx, "id"), in)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, s)
}

func (h *SettingsHandler) Activate(ctx *xhttp.RequestCtx) {
	s, err := h.svc.Activate(ctx, pathParam(ctx, "id"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, s)
}
