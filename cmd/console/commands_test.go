package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gfconnector/billing-console/internal/client"
	"github.com/gfconnector/billing-console/internal/config"
	"github.com/gfconnector/billing-console/internal/console"
	"github.com/gfconnector/billing-console/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		ConsolePageSize:       20,
		ConsoleSearchDebounce: 10 * time.Millisecond,
		ConsolePollInterval:   20 * time.Millisecond,
		ConsoleBulkWorkers:    2,
	}
}

func newTestApp(t *testing.T, input string) (*app, *client.MockAPI, *bytes.Buffer) {
	t.Helper()
	api := client.NewMockAPI(40)
	out := &bytes.Buffer{}
	return newApp(api, testConfig(), strings.NewReader(input), out), api, out
}

func TestRun_UnknownCommand(t *testing.T) {
	a, _, _ := newTestApp(t, "")
	assert.ErrorIs(t, a.run(context.Background(), []string{"frobnicate"}), errUsage)
}

func TestRun_ShowAndConfirm(t *testing.T) {
	ctx := context.Background()
	a, api, out := newTestApp(t, "")

	require.NoError(t, a.run(ctx, []string{"show", "1"}))
	assert.Contains(t, out.String(), "EXT-100001")
	assert.Contains(t, out.String(), "confirm_billing")

	require.NoError(t, a.run(ctx, []string{"confirm", "1"}))
	assert.Equal(t, console.ToastSuccess, a.toasts.Last().Kind)
	assert.Contains(t, a.toasts.Last().Message, "Billing confirmed for 1")

	tx, err := api.GetTransaction(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, model.BillingBilled, tx.BillingStatus)

	// FAILED transactions cannot be billed
	assert.Error(t, a.run(ctx, []string{"confirm", "2"}))
	assert.Equal(t, console.ToastError, a.toasts.Last().Kind)
}

func TestRun_BulkConfirmReportsPartialFailure(t *testing.T) {
	a, _, out := newTestApp(t, "")

	err := a.run(context.Background(), []string{"bulk-confirm", "1", "9", "2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 succeeded, 1 failed")
	assert.Contains(t, out.String(), "  2: ")
	assert.Equal(t, console.ToastWarning, a.toasts.Last().Kind)
}

func TestRun_RefundNeedsReason(t *testing.T) {
	a, _, _ := newTestApp(t, "")
	assert.ErrorIs(t, a.run(context.Background(), []string{"refund", "1"}), errUsage)
	assert.ErrorIs(t, a.run(context.Background(), []string{"refund", "-reason", "  ", "1"}), errUsage)
}

func TestRun_ListWithFilters(t *testing.T) {
	a, _, out := newTestApp(t, "")

	require.NoError(t, a.run(context.Background(), []string{"list", "-status", "paid", "-size", "3"}))
	s := out.String()
	assert.Contains(t, s, "page 1/")
	assert.NotContains(t, s, "AUTHORIZED")

	assert.ErrorIs(t, a.run(context.Background(), []string{"list", "-min", "abc"}), errUsage)
}

func TestRun_ReviewConfirmsAndNavigates(t *testing.T) {
	ctx := context.Background()
	a, api, out := newTestApp(t, "n\np\nc\nq\n")

	before, err := api.PendingTransactions(ctx, 0, 1)
	require.NoError(t, err)

	require.NoError(t, a.run(ctx, []string{"review"}))
	assert.Contains(t, out.String(), "Pending 1 of")
	assert.Contains(t, out.String(), "[c]onfirm")

	after, err := api.PendingTransactions(ctx, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, before.TotalElements-1, after.TotalElements)
}

func TestRun_DownloadInvoice(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestApp(t, "")
	path := filepath.Join(t.TempDir(), "inv.pdf")

	assert.Error(t, a.run(ctx, []string{"invoice-pdf", "-out", path, "9"}))

	require.NoError(t, a.run(ctx, []string{"confirm", "9"}))
	require.NoError(t, a.run(ctx, []string{"invoice-pdf", "-out", path, "9"}))
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
}

func TestRun_SettingsInitializesDefaults(t *testing.T) {
	a, _, out := newTestApp(t, "")
	require.NoError(t, a.run(context.Background(), []string{"settings"}))
	assert.Contains(t, out.String(), "Activo:")
}

func TestRun_BrowseSelectsAndConfirms(t *testing.T) {
	a, api, out := newTestApp(t, "status PAID\nall\nc\nq\n")

	require.NoError(t, a.run(context.Background(), []string{"browse"}))
	assert.Contains(t, out.String(), "succeeded")

	tx, err := api.GetTransaction(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, model.BillingBilled, tx.BillingStatus)
}

func TestWithoutEnvArg(t *testing.T) {
	assert.Equal(t, []string{"list", "-size", "5"}, withoutEnvArg([]string{"--env=.env", "list", "-size", "5"}))
}
