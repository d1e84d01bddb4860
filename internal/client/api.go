// Package client is the console's view of the billing backend: either the REST
// API over fasthttp or an in-process fake.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/gfconnector/billing-console/internal/config"
	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/query"
	"github.com/gfconnector/billing-console/pkg/logger"
)

var ErrUnauthorized = errors.New("session expired, please log in again")

// HTTPError is a non-2xx answer from the backend.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == 404
}

func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var he *HTTPError
	return errors.As(err, &he) && he.Status == 401
}

type API interface {
	Health(ctx context.Context) error
	Login(ctx context.Context, username, password string) error
	Logout() error

	ListTransactions(ctx context.Context, p query.Params) (model.Page, error)
	PendingTransactions(ctx context.Context, page, size int) (model.Page, error)
	GetTransaction(ctx context.Context, id string) (model.Transaction, error)
	InitializeBillingStatus(ctx context.Context) (model.InitializeResult, error)
	ConfirmBilling(ctx context.Context, id string) (model.ActionResult, error)
	Refund(ctx context.Context, id, reason string) (model.ActionResult, error)

	InvoicePDF(ctx context.Context, id string) ([]byte, error)
	CreditNotePDF(ctx context.Context, id string) ([]byte, error)
	ResendInvoice(ctx context.Context, id string) error

	ActiveSettings(ctx context.Context) (model.BillingSettings, error)
	InitDefaultSettings(ctx context.Context) (model.BillingSettings, error)
	DashboardStats(ctx context.Context) (model.DashboardStats, error)
}

// LoadSettings returns the active billing settings, creating the defaults when
// the backend has none yet.
func LoadSettings(ctx context.Context, api API) (model.BillingSettings, error) {
	s, err := api.ActiveSettings(ctx)
	if err == nil {
		return s, nil
	}
	if !IsNotFound(err) {
		return model.BillingSettings{}, err
	}
	logger.Info("no active billing settings, initializing defaults")
	return api.InitDefaultSettings(ctx)
}

// New picks the in-process fake when USE_MOCKS is set, the REST client otherwise.
func New(cfg *config.Config) (API, error) {
	if cfg.UseMocks {
		return NewMockAPI(cfg.MockSeedSize), nil
	}
	var tokens TokenStore = NewMemoryTokenStore()
	if cfg.SessionFile != "" {
		bolt, err := NewBoltTokenStore(cfg.SessionFile)
		if err != nil {
			return nil, err
		}
		tokens = bolt
	}
	return NewHTTPClient(cfg.ApiBaseURL, cfg.HttpRequestTimeout, tokens), nil
}
