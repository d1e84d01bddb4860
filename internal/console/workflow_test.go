package console

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReviewAPI struct {
	mock.Mock
}

func (m *MockReviewAPI) PendingTransactions(ctx context.Context, page, size int) (model.Page, error) {
	args := m.Called(ctx, page, size)
	return args.Get(0).(model.Page), args.Error(1)
}

func (m *MockReviewAPI) ConfirmBilling(ctx context.Context, id string) (model.ActionResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.ActionResult), args.Error(1)
}

func pendingPage(ids ...string) model.Page {
	p := model.Page{Content: []model.Transaction{}, TotalElements: len(ids), TotalPages: 1}
	for _, id := range ids {
		p.Content = append(p.Content, model.Transaction{ID: id, Status: model.StatusPaid, BillingStatus: model.BillingPending})
	}
	return p
}

func TestConfirmationWorkflow_EmptyQueue(t *testing.T) {
	ctx := context.Background()
	api := new(MockReviewAPI)
	api.On("PendingTransactions", ctx, 0, ReviewBatchSize).Return(pendingPage(), nil)

	wf := NewConfirmationWorkflow(api, nil, nil)
	assert.Equal(t, ReviewIdle, wf.State())
	require.NoError(t, wf.Start(ctx))
	assert.Equal(t, ReviewEmpty, wf.State())
	_, ok := wf.Current()
	assert.False(t, ok)
	assert.Error(t, wf.Confirm(ctx))
}

func TestConfirmationWorkflow_Navigation(t *testing.T) {
	ctx := context.Background()
	api := new(MockReviewAPI)
	api.On("PendingTransactions", ctx, 0, ReviewBatchSize).Return(pendingPage("1", "2", "3"), nil)

	wf := NewConfirmationWorkflow(api, nil, nil)
	require.NoError(t, wf.Start(ctx))
	assert.Equal(t, ReviewReviewing, wf.State())

	assert.False(t, wf.Previous())
	assert.True(t, wf.Next())
	assert.True(t, wf.Next())
	assert.False(t, wf.Next())
	cur, _ := wf.Current()
	assert.Equal(t, "3", cur.ID)
	api.AssertNotCalled(t, "ConfirmBilling", mock.Anything, mock.Anything)
}

func TestConfirmationWorkflow_ConfirmRemovesAndClamps(t *testing.T) {
	ctx := context.Background()
	api := new(MockReviewAPI)
	api.On("PendingTransactions", ctx, 0, ReviewBatchSize).Return(pendingPage("1", "2"), nil)
	api.On("ConfirmBilling", ctx, "2").Return(model.ActionResult{Status: "success", DocumentNumber: "FC-1"}, nil)
	api.On("ConfirmBilling", ctx, "1").Return(model.ActionResult{Status: "success"}, nil)

	toasts := NewToastLog(nil)
	var returned atomic.Bool
	wf := NewConfirmationWorkflow(api, toasts, func() { returned.Store(true) })
	require.NoError(t, wf.Start(ctx))

	wf.Next()
	require.NoError(t, wf.Confirm(ctx))
	idx, total := wf.Position()
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, total)
	cur, _ := wf.Current()
	assert.Equal(t, "1", cur.ID)
	assert.Equal(t, ToastSuccess, toasts.Last().Kind)
	assert.Contains(t, toasts.Last().Message, "FC-1")
	assert.False(t, returned.Load())

	require.NoError(t, wf.Confirm(ctx))
	assert.Equal(t, ReviewEmpty, wf.State())
	assert.True(t, returned.Load())
	api.AssertExpectations(t)
}

func TestConfirmationWorkflow_FailureKeepsItem(t *testing.T) {
	ctx := context.Background()
	api := new(MockReviewAPI)
	api.On("PendingTransactions", ctx, 0, ReviewBatchSize).Return(pendingPage("1", "2"), nil)
	api.On("ConfirmBilling", ctx, "1").Return(model.ActionResult{}, errors.New("provider down"))

	toasts := NewToastLog(nil)
	wf := NewConfirmationWorkflow(api, toasts, nil)
	require.NoError(t, wf.Start(ctx))

	assert.Error(t, wf.Confirm(ctx))
	_, total := wf.Position()
	assert.Equal(t, 2, total)
	cur, _ := wf.Current()
	assert.Equal(t, "1", cur.ID)
	assert.Equal(t, ToastError, toasts.Last().Kind)
}

func TestConfirmationWorkflow_StartFailure(t *testing.T) {
	ctx := context.Background()
	api := new(MockReviewAPI)
	api.On("PendingTransactions", ctx, 0, ReviewBatchSize).Return(model.Page{}, errors.New("down"))

	toasts := NewToastLog(nil)
	wf := NewConfirmationWorkflow(api, toasts, nil)
	assert.Error(t, wf.Start(ctx))
	assert.Equal(t, ReviewIdle, wf.State())
	assert.Len(t, toasts.Toasts(), 1)
}

type countingPending struct {
	calls atomic.Int32
	total int
}

func (c *countingPending) PendingTransactions(context.Context, int, int) (model.Page, error) {
	c.calls.Add(1)
	return model.Page{TotalElements: c.total}, nil
}

func TestPendingPoller_FiresImmediatelyAndStops(t *testing.T) {
	api := &countingPending{total: 7}
	var mu sync.Mutex
	var seen []int
	p := NewPendingPoller(api, 20*time.Millisecond, func(n int) {
		mu.Lock()
		seen = append(seen, n)
		mu.Unlock()
	})

	p.Start()
	require.Eventually(t, func() bool { return api.calls.Load() >= 1 }, 500*time.Millisecond, time.Millisecond)
	require.Eventually(t, func() bool { return api.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	p.Stop()
	p.Stop()

	n, ok := p.Count()
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	after := api.calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, after, api.calls.Load())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 7, seen[0])
}
