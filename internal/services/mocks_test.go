package services

import (
	"context"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/query"
	"github.com/stretchr/testify/mock"
)

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) List(ctx context.Context, p query.Params) (model.Page, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.Page), args.Error(1)
}

func (m *MockTransactionRepository) ListPending(ctx context.Context, page, size int) (model.Page, error) {
	args := m.Called(ctx, page, size)
	return args.Get(0).(model.Page), args.Error(1)
}

func (m *MockTransactionRepository) Get(ctx context.Context, id string) (model.Transaction, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Save(ctx context.Context, t model.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTransactionRepository) All(ctx context.Context) ([]model.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Transaction), args.Error(1)
}

type MockInvoiceIssuer struct {
	mock.Mock
}

func (m *MockInvoiceIssuer) IssueInvoice(ctx context.Context, t model.Transaction) (model.IssuedDocument, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(model.IssuedDocument), args.Error(1)
}

func (m *MockInvoiceIssuer) IssueCreditNote(ctx context.Context, t model.Transaction, reason string) (model.IssuedDocument, error) {
	args := m.Called(ctx, t, reason)
	return args.Get(0).(model.IssuedDocument), args.Error(1)
}

func (m *MockInvoiceIssuer) FetchPDF(ctx context.Context, number string) ([]byte, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockInvoiceIssuer) ResendInvoice(ctx context.Context, number, email string) error {
	args := m.Called(ctx, number, email)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error) {
	args := m.Called(ctx, data, metadata)
	return args.String(0), args.Error(1)
}

type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Active(ctx context.Context) (model.BillingSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.BillingSettings), args.Error(1)
}

func (m *MockSettingsRepository) Get(ctx context.Context, id string) (model.BillingSettings, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.BillingSettings), args.Error(1)
}

func (m *MockSettingsRepository) List(ctx context.Context) ([]model.BillingSettings, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.BillingSettings), args.Error(1)
}

func (m *MockSettingsRepository) Create(ctx context.Context, s model.BillingSettings) (model.BillingSettings, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(model.BillingSettings), args.Error(1)
}

func (m *MockSettingsRepository) Update(ctx context.Context, s model.BillingSettings) (model.BillingSettings, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(model.BillingSettings), args.Error(1)
}

func (m *MockSettingsRepository) Activate(ctx context.Context, id string) (model.BillingSettings, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.BillingSettings), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.User), args.Error(1)
}
