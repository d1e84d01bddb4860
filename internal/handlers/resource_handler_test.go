package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) InvoicePDF(ctx context.Context, id string) ([]byte, string, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).([]byte)
	return b, args.String(1), args.Error(2)
}

func (m *MockDocumentService) CreditNotePDF(ctx context.Context, id string) ([]byte, string, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).([]byte)
	return b, args.String(1), args.Error(2)
}

func (m *MockDocumentService) ResendInvoice(ctx context.Context, id string) (model.InvoiceDelivery, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.InvoiceDelivery), args.Error(1)
}

type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Active(ctx context.Context) (model.BillingSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.BillingSettings), args.Error(1)
}

func (m *MockSettingsService) List(ctx context.Context) ([]model.BillingSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.BillingSettings), args.Error(1)
}

func (m *MockSettingsService) InitDefault(ctx context.Context) (model.BillingSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.BillingSettings), args.Error(1)
}

func (m *MockSettingsService) Create(ctx context.Context, in model.BillingSettings) (model.BillingSettings, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(model.BillingSettings), args.Error(1)
}

func (m *MockSettingsService) Update(ctx context.Context, id string, in model.BillingSettings) (model.BillingSettings, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(model.BillingSettings), args.Error(1)
}

func (m *MockSettingsService) Activate(ctx context.Context, id string) (model.BillingSettings, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.BillingSettings), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req model.LoginRequest) (model.TokenPair, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.TokenPair), args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) DashboardStats(ctx context.Context, from, to *time.Time) (model.DashboardStats, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(model.DashboardStats), args.Error(1)
}

func (m *MockReportService) TransactionsByDay(ctx context.Context, from, to *time.Time) ([]model.DailyStats, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]model.DailyStats), args.Error(1)
}

func (m *MockReportService) Reconciliation(ctx context.Context, from, to *time.Time) (model.ReconciliationReport, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(model.ReconciliationReport), args.Error(1)
}

func (m *MockReportService) ExportTransactionsCSV(ctx context.Context, from, to *time.Time, status model.TransactionStatus) ([]byte, error) {
	args := m.Called(ctx, from, to, status)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func TestDocumentHandler_InvoicePDF(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)
	svc.On("InvoicePDF", mock.Anything, "1").Return([]byte("%PDF-1.4"), "FC-0001-00000001.pdf", nil)
	svc.On("InvoicePDF", mock.Anything, "3").Return(nil, "", services.ErrNoDocument)

	ctx := setupTestContext("GET", "/api/invoices/pdf/1", nil)
	ctx.SetUserValue("id", "1")
	handler.InvoicePDF(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())
	assert.Equal(t, "application/pdf", string(ctx.Response.Header.ContentType()))
	assert.Contains(t, string(ctx.Response.Header.Peek("Content-Disposition")), "FC-0001-00000001.pdf")

	ctx = setupTestContext("GET", "/api/invoices/pdf/3", nil)
	ctx.SetUserValue("id", "3")
	handler.InvoicePDF(ctx)
	assert.Equal(t, 400, ctx.Response.StatusCode())
}

func TestDocumentHandler_ResendInvoice(t *testing.T) {
	svc := new(MockDocumentService)
	handler := NewDocumentHandler(svc)
	svc.On("ResendInvoice", mock.Anything, "1").Return(model.InvoiceDelivery{ID: "job", TransactionID: "1"}, nil)

	ctx := setupTestContext("POST", "/api/invoices/resend/1", nil)
	ctx.SetUserValue("id", "1")
	handler.ResendInvoice(ctx)
	assert.Equal(t, 202, ctx.Response.StatusCode())
}

func TestSettingsHandler(t *testing.T) {
	t.Run("active missing", func(t *testing.T) {
		svc := new(MockSettingsService)
		svc.On("Active", mock.Anything).Return(model.BillingSettings{}, services.ErrNotFound)

		ctx := setupTestContext("GET", "/api/billing-settings/active", nil)
		NewSettingsHandler(svc).Active(ctx)
		assert.Equal(t, 404, ctx.Response.StatusCode())
	})

	t.Run("create invalid json", func(t *testing.T) {
		svc := new(MockSettingsService)
		ctx := setupTestContext("POST", "/api/billing-settings", []byte("{"))
		NewSettingsHandler(svc).Create(ctx)
		assert.Equal(t, 400, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("create validation", func(t *testing.T) {
		svc := new(MockSettingsService)
		svc.On("Create", mock.Anything, mock.Anything).Return(model.BillingSettings{}, fmt.Errorf("%w: CuitEmpresa failed on len", services.ErrValidation))
		ctx := setupTestContext("POST", "/api/billing-settings", []byte(`{"cuitEmpresa":"1"}`))
		NewSettingsHandler(svc).Create(ctx)
		assert.Equal(t, 400, ctx.Response.StatusCode())
		assert.Contains(t, decodeError(t, ctx), "CuitEmpresa")
	})

	t.Run("update", func(t *testing.T) {
		svc := new(MockSettingsService)
		svc.On("Update", mock.Anything, "abc", mock.MatchedBy(func(s model.BillingSettings) bool {
			return s.RazonSocialEmpresa == "ACME"
		})).Return(model.BillingSettings{ID: "abc", RazonSocialEmpresa: "ACME"}, nil)

		ctx := setupTestContext("PUT", "/api/billing-settings/abc", []byte(`{"razonSocialEmpresa":"ACME"}`))
		ctx.SetUserValue("id", "abc")
		NewSettingsHandler(svc).Update(ctx)
		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})
}

func TestAuthHandler(t *testing.T) {
	svc := new(MockAuthService)
	handler := NewAuthHandler(svc)
	svc.On("Login", mock.Anything, model.LoginRequest{Username: "ana", Password: "pw"}).
		Return(model.TokenPair{AccessToken: "tok", TokenType: "Bearer"}, nil)
	svc.On("Login", mock.Anything, model.LoginRequest{Username: "ana", Password: "bad"}).
		Return(model.TokenPair{}, services.ErrInvalidCredentials)
	svc.On("Register", mock.Anything, mock.Anything).Return(model.User{}, services.ErrDuplicateUser)

	ctx := setupTestContext("POST", "/api/auth/login", []byte(`{"username":"ana","password":"pw"}`))
	handler.Login(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())
	var tokens model.TokenPair
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &tokens))
	assert.Equal(t, "tok", tokens.AccessToken)

	ctx = setupTestContext("POST", "/api/auth/login", []byte(`{"username":"ana","password":"bad"}`))
	handler.Login(ctx)
	assert.Equal(t, 401, ctx.Response.StatusCode())

	ctx = setupTestContext("POST", "/api/auth/register", []byte(`{"username":"ana","email":"a@b.c","password":"password1"}`))
	handler.Register(ctx)
	assert.Equal(t, 409, ctx.Response.StatusCode())
}

func TestReportHandler_Export(t *testing.T) {
	svc := new(MockReportService)
	handler := NewReportHandler(svc)
	handler.now = func() time.Time { return time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC) }

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.On("ExportTransactionsCSV", mock.Anything, &from, (*time.Time)(nil), model.StatusPaid).Return([]byte("ID\n"), nil)

	ctx := setupTestContext("GET", "/api/reports/transactions/export?format=csv&startDate=2024-03-01&status=paid", nil)
	handler.ExportTransactions(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Header.Peek("Content-Disposition")), "transacciones_2024-03-10.csv")
	svc.AssertExpectations(t)

	ctx = setupTestContext("GET", "/api/reports/transactions/export?format=xlsx", nil)
	handler.ExportTransactions(ctx)
	assert.Equal(t, 400, ctx.Response.StatusCode())
}

func TestReportHandler_DashboardStats(t *testing.T) {
	svc := new(MockReportService)
	svc.On("DashboardStats", mock.Anything, (*time.Time)(nil), (*time.Time)(nil)).
		Return(model.DashboardStats{TotalTransactions: 4, Paid: 2}, nil)

	ctx := setupTestContext("GET", "/api/dashboard/stats", nil)
	NewReportHandler(svc).DashboardStats(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"paidTransactions":2`)
}
