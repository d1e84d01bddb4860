package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/query"
	"github.com/gfconnector/billing-console/internal/services"
	xhttp "github.com/gfconnector/billing-console/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) List(ctx context.Context, p query.Params) (model.Page, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.Page), args.Error(1)
}

func (m *MockTransactionService) ListPending(ctx context.Context, page, size int) (model.Page, error) {
	args := m.Called(ctx, page, size)
	return args.Get(0).(model.Page), args.Error(1)
}

func (m *MockTransactionService) Get(ctx context.Context, id string) (model.Transaction, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Transaction), args.Error(1)
}

func (m *MockTransactionService) InitializeBillingStatus(ctx context.Context) (model.InitializeResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.InitializeResult), args.Error(1)
}

func (m *MockTransactionService) ResetErrorToPending(ctx context.Context) (model.InitializeResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.InitializeResult), args.Error(1)
}

func (m *MockTransactionService) ConfirmBilling(ctx context.Context, id string) (model.ActionResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.ActionResult), args.Error(1)
}

func (m *MockTransactionService) Refund(ctx context.Context, id, reason string) (model.ActionResult, error) {
	args := m.Called(ctx, id, reason)
	return args.Get(0).(model.ActionResult), args.Error(1)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func decodeError(t *testing.T, ctx *xhttp.RequestCtx) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &body))
	return body["error"]
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrNotFound, 404},
		{fmt.Errorf("%w: cuit", services.ErrValidation), 400},
		{fmt.Errorf("%w: status FAILED", services.ErrNotConfirmable), 400},
		{services.ErrNotRefundable, 400},
		{services.ErrNoDocument, 400},
		{services.ErrInvalidCredentials, 401},
		{services.ErrConfirmationInProgress, 409},
		{services.ErrDuplicateUser, 409},
		{fmt.Errorf("%w: down", services.ErrIssuingFailed), 500},
		{errors.New("boom"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusOf(tt.err), tt.err.Error())
	}
}

func TestTransactionHandler_ListTransactions(t *testing.T) {
	svc := new(MockTransactionService)
	handler := NewTransactionHandler(svc)

	svc.On("List", mock.Anything, mock.MatchedBy(func(p query.Params) bool {
		return p.Status == "PAID" && p.BillingStatus == "pending" && p.Size == 2 && p.Page == 1 &&
			p.SortBy == "amount" && p.SortDir == query.SortAsc
	})).Return(model.Page{Content: []model.Transaction{}, TotalElements: 3, TotalPages: 2, Number: 1, Size: 2}, nil)

	ctx := setupTestContext("GET", "/api/transactions/list-native?status=PAID&billingStatus=pending&page=1&size=2&sortBy=amount&sortDir=asc", nil)
	handler.ListTransactions(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	var page model.Page
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &page))
	assert.Equal(t, 3, page.TotalElements)
	assert.NotNil(t, page.Content)
	svc.AssertExpectations(t)
}

func TestTransactionHandler_ListPending_Defaults(t *testing.T) {
	svc := new(MockTransactionService)
	handler := NewTransactionHandler(svc)
	svc.On("ListPending", mock.Anything, 0, query.DefaultSize).Return(model.Page{Content: []model.Transaction{}}, nil)

	ctx := setupTestContext("GET", "/api/transactions/pending-billing-confirmation", nil)
	handler.ListPending(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	svc.AssertExpectations(t)
}

func TestTransactionHandler_GetTransaction(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := new(MockTransactionService)
		handler := NewTransactionHandler(svc)
		svc.On("Get", mock.Anything, "42").Return(model.Transaction{ID: "42", Status: model.StatusPaid}, nil)

		ctx := setupTestContext("GET", "/api/transactions/42", nil)
		ctx.SetUserValue("id", "42")
		handler.GetTransaction(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		var got model.Transaction
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &got))
		assert.Equal(t, "42", got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockTransactionService)
		handler := NewTransactionHandler(svc)
		svc.On("Get", mock.Anything, "nope").Return(model.Transaction{}, services.ErrNotFound)

		ctx := setupTestContext("GET", "/api/transactions/nope", nil)
		ctx.SetUserValue("id", "nope")
		handler.GetTransaction(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
		assert.Equal(t, "not found", decodeError(t, ctx))
	})
}

func TestTransactionHandler_ConfirmBilling(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"success", nil, 200},
		{"not confirmable", services.ErrNotConfirmable, 400},
		{"locked", services.ErrConfirmationInProgress, 409},
		{"provider down", fmt.Errorf("%w: timeout", services.ErrIssuingFailed), 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockTransactionService)
			handler := NewTransactionHandler(svc)
			svc.On("ConfirmBilling", mock.Anything, "42").
				Return(model.ActionResult{Status: "success", TransactionID: "42"}, tt.err)

			ctx := setupTestContext("POST", "/api/transactions/42/confirm-billing", nil)
			ctx.SetUserValue("id", "42")
			handler.ConfirmBilling(ctx)

			assert.Equal(t, tt.status, ctx.Response.StatusCode())
			svc.AssertExpectations(t)
		})
	}
}

func TestTransactionHandler_Refund(t *testing.T) {
	svc := new(MockTransactionService)
	handler := NewTransactionHandler(svc)
	svc.On("Refund", mock.Anything, "7", "customer request").
		Return(model.ActionResult{Status: "success", TransactionID: "7", DocumentNumber: "NC-1007"}, nil)

	ctx := setupTestContext("POST", "/api/credit-notes/refund/7?refundReason=customer+request", nil)
	ctx.SetUserValue("id", "7")
	handler.Refund(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	var res model.ActionResult
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &res))
	assert.Equal(t, "NC-1007", res.DocumentNumber)
	svc.AssertExpectations(t)
}

func TestTransactionHandler_InitializeAndReset(t *testing.T) {
	svc := new(MockTransactionService)
	handler := NewTransactionHandler(svc)
	svc.On("InitializeBillingStatus", mock.Anything).Return(model.InitializeResult{Status: "success", UpdatedCount: 3}, nil)
	svc.On("ResetErrorToPending", mock.Anything).Return(model.InitializeResult{}, errors.New("db down"))

	ctx := setupTestContext("POST", "/api/transactions/initialize-billing-status", nil)
	handler.InitializeBillingStatus(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"updated_count":3`)

	ctx = setupTestContext("POST", "/api/transactions/reset-error-to-pending", nil)
	handler.ResetErrorToPending(ctx)
	assert.Equal(t, 500, ctx.Response.StatusCode())
}

func TestRoutes_StaticAndParamSegments(t *testing.T) {
	svc := new(MockTransactionService)
	svc.On("ListPending", mock.Anything, 0, query.DefaultSize).Return(model.Page{Content: []model.Transaction{}}, nil)
	svc.On("Get", mock.Anything, "42").Return(model.Transaction{ID: "42"}, nil)

	r := xhttp.CreateDefaultRouter()
	RegisterTransactionRoutes(r.Group("/api"), NewTransactionHandler(svc))

	ctx := setupTestContext("GET", "/api/transactions/pending-billing-confirmation", nil)
	r.Handler(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())

	ctx = setupTestContext("GET", "/api/transactions/42", nil)
	r.Handler(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())

	svc.AssertExpectations(t)
}

type stubHealth struct{ err error }

func (s stubHealth) Get() error { return s.err }

func TestHealthHandler(t *testing.T) {
	ctx := setupTestContext("GET", "/api/health", nil)
	NewHealthHandler(stubHealth{}).GetHealth(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())

	ctx = setupTestContext("GET", "/api/health", nil)
	NewHealthHandler(stubHealth{err: errors.New("redis: refused")}).GetHealth(ctx)
	assert.Equal(t, 503, ctx.Response.StatusCode())
}

