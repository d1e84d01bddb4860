package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gateway "github.com/gfconnector/billing-console/internal/gateways"
	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, rate float64) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(SetupRouter(NewHandler(NewMockInvoicer(rate, 0, 0))))
	t.Cleanup(srv.Close)
	return srv
}

func TestInvoicer_IssueThroughGatewayClient(t *testing.T) {
	srv := newTestServer(t, 1)
	client, err := gateway.NewInvoicerClient(gateway.DefaultConfig(srv.URL))
	require.NoError(t, err)

	tx := model.Transaction{ID: "42", ExternalID: "EXT-42", Status: model.StatusPaid, Amount: decimal.NewFromInt(1500), Currency: "ARS"}
	inv, err := client.IssueInvoice(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "FC-0001-00000001", inv.Number)
	assert.Len(t, inv.CAE, 14)

	tx.InvoiceNumber = model.StringPtr(inv.Number)
	nc, err := client.IssueCreditNote(context.Background(), tx, "duplicate charge")
	require.NoError(t, err)
	assert.Equal(t, "NC-0001-00000001", nc.Number)

	pdf, err := client.FetchPDF(context.Background(), inv.Number)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	require.NoError(t, client.ResendInvoice(context.Background(), inv.Number, "billing@example.com"))
	require.NoError(t, client.Ping(context.Background()))
}

func TestInvoicer_RejectsInvalidRequests(t *testing.T) {
	srv := newTestServer(t, 1)

	res, err := http.Post(srv.URL+"/api/v1/invoices", "application/json", strings.NewReader(`{"transaction_id":"1","amount":0}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, err = http.Post(srv.URL+"/api/v1/credit-notes", "application/json", strings.NewReader(`{"transaction_id":"1","amount":10}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestInvoicer_FailureIsRetriedAndSurfaced(t *testing.T) {
	srv := newTestServer(t, 0)
	cfg := gateway.DefaultConfig(srv.URL)
	cfg.RetryDelay = 0
	client, err := gateway.NewInvoicerClient(cfg)
	require.NoError(t, err)

	_, err = client.IssueInvoice(context.Background(), model.Transaction{ID: "7", Amount: decimal.NewFromInt(10), Currency: "ARS"})
	require.Error(t, err)
	assert.Equal(t, int64(cfg.MaxRetries+1), client.Metrics().FailedReqs.Load())
}

func TestInvoicer_UpdateConfig(t *testing.T) {
	srv := newTestServer(t, 1)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/config", strings.NewReader(`{"success_rate":0.25}`))
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
