package mockdata

import (
	"testing"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	items := Generate(DefaultSize, now)

	require.Len(t, items, DefaultSize)

	first := items[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "EXT-100001", first.ExternalID)
	assert.Equal(t, model.StatusPaid, first.Status)
	assert.Equal(t, model.BillingPending, first.BillingStatus)
	assert.Equal(t, "1334", first.Amount.String())
	assert.Equal(t, "BRL", first.Currency)
	assert.Equal(t, now.Add(-time.Hour), first.CreatedAt)
	require.NotNil(t, first.CapturedAt)
	assert.Equal(t, "DOC20000001", *first.CustomerDoc)

	refunded := items[2]
	assert.Equal(t, model.StatusRefunded, refunded.Status)
	require.NotNil(t, refunded.CreditNoteNumber)
	assert.Equal(t, "NC-1003", *refunded.CreditNoteNumber)
	assert.Nil(t, refunded.CapturedAt)

	counts := map[model.BillingStatus]int{}
	for _, tx := range items {
		if tx.Status != model.StatusPaid {
			assert.Equal(t, model.BillingNotApplicable, tx.BillingStatus)
			assert.Nil(t, tx.CapturedAt)
			continue
		}
		counts[tx.BillingStatus]++
		if tx.BillingStatus == model.BillingBilled {
			assert.True(t, tx.HasInvoice())
		}
	}
	assert.Positive(t, counts[model.BillingPending])
	assert.Positive(t, counts[model.BillingError])
}

func TestGenerate_Deterministic(t *testing.T) {
	now := time.Now()
	assert.Equal(t, Generate(20, now), Generate(20, now))
	assert.Empty(t, Generate(0, now))
}
