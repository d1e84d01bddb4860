package client

import (
	"context"
	"errors"
	"time"

	"github.com/gfconnector/billing-console/internal/mockdata"
	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/query"
	"github.com/gfconnector/billing-console/internal/services"
	"github.com/gfconnector/billing-console/internal/store"
)

const mockToken = "mock-session"

// MockAPI runs the real services over an in-memory store, so the console works
// without a backend. Each instance owns its own data.
type MockAPI struct {
	Store *store.MemoryStore

	transactions *services.TransactionService
	documents    *services.DocumentService
	settings     *services.SettingsService
	reports      *services.ReportService
	tokens       TokenStore
}

func NewMockAPI(seedSize int) *MockAPI {
	if seedSize <= 0 {
		seedSize = mockdata.DefaultSize
	}
	return NewMockAPIWithStore(store.NewMemoryStore(mockdata.Generate(seedSize, time.Now())))
}

func NewMockAPIWithStore(s *store.MemoryStore) *MockAPI {
	issuer := services.NewLocalIssuer()
	settings := store.NewSettingsStore()
	return &MockAPI{
		Store:        s,
		transactions: services.NewTransactionService(s, issuer, nil),
		documents:    services.NewDocumentService(s, issuer, nil, settings),
		settings:     services.NewSettingsService(settings),
		reports:      services.NewReportService(s),
		tokens:       NewMemoryTokenStore(),
	}
}

func (m *MockAPI) Health(context.Context) error {
	return nil
}

// Login accepts any non-empty credentials.
func (m *MockAPI) Login(_ context.Context, username, password string) error {
	if username == "" || password == "" {
		return &HTTPError{Status: 401, Body: services.ErrInvalidCredentials.Error()}
	}
	return m.tokens.SetToken(mockToken)
}

func (m *MockAPI) Logout() error {
	return m.tokens.Clear()
}

func (m *MockAPI) ListTransactions(ctx context.Context, p query.Params) (model.Page, error) {
	return m.transactions.List(ctx, p)
}

func (m *MockAPI) PendingTransactions(ctx context.Context, page, size int) (model.Page, error) {
	return m.transactions.ListPending(ctx, page, size)
}

func (m *MockAPI) GetTransaction(ctx context.Context, id string) (model.Transaction, error) {
	t, err := m.transactions.Get(ctx, id)
	return t, asHTTPError(err)
}

func (m *MockAPI) InitializeBillingStatus(ctx context.Context) (model.InitializeResult, error) {
	return m.transactions.InitializeBillingStatus(ctx)
}

func (m *MockAPI) ConfirmBilling(ctx context.Context, id string) (model.ActionResult, error) {
	res, err := m.transactions.ConfirmBilling(ctx, id)
	return res, asHTTPError(err)
}

func (m *MockAPI) Refund(ctx context.Context, id, reason string) (model.ActionResult, error) {
	res, err := m.transactions.Refund(ctx, id, reason)
	return res, asHTTPError(err)
}

func (m *MockAPI) InvoicePDF(ctx context.Context, id string) ([]byte, error) {
	pdf, _, err := m.documents.InvoicePDF(ctx, id)
	return pdf, asHTTPError(err)
}

func (m *MockAPI) CreditNotePDF(ctx context.Context, id string) ([]byte, error) {
	pdf, _, err := m.documents.CreditNotePDF(ctx, id)
	return pdf, asHTTPError(err)
}

func (m *MockAPI) ResendInvoice(ctx context.Context, id string) error {
	_, err := m.documents.ResendInvoice(ctx, id)
	return asHTTPError(err)
}

func (m *MockAPI) ActiveSettings(ctx context.Context) (model.BillingSettings, error) {
	s, err := m.settings.Active(ctx)
	return s, asHTTPError(err)
}

func (m *MockAPI) InitDefaultSettings(ctx context.Context) (model.BillingSettings, error) {
	return m.settings.InitDefault(ctx)
}

func (m *MockAPI) DashboardStats(ctx context.Context) (model.DashboardStats, error) {
	return m.reports.DashboardStats(ctx, nil, nil)
}

// asHTTPError gives service errors the shape the REST client would report.
func asHTTPError(err error) error {
	if err == nil {
		return nil
	}
	status := 500
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = 404
	case errors.Is(err, services.ErrNotConfirmable),
		errors.Is(err, services.ErrNotRefundable),
		errors.Is(err, services.ErrNoDocument),
		errors.Is(err, services.ErrValidation):
		status = 400
	case errors.Is(err, services.ErrConfirmationInProgress):
		status = 409
	}
	return &HTTPError{Status: status, Body: err.Error()}
}
