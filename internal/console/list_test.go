package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/query"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	mu      sync.Mutex
	calls   []query.Params
	respond func(call int, p query.Params) (model.Page, error)
}

func (f *fakeLister) ListTransactions(_ context.Context, p query.Params) (model.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	n := len(f.calls)
	f.mu.Unlock()
	if f.respond == nil {
		return model.Page{Content: []model.Transaction{}, TotalPages: 1}, nil
	}
	return f.respond(n, p)
}

func (f *fakeLister) Calls() []query.Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]query.Params{}, f.calls...)
}

func txn(id string, amount int64) model.Transaction {
	return model.Transaction{ID: id, Status: model.StatusPaid, Amount: decimal.NewFromInt(amount), Currency: "ARS"}
}

func TestListController_FilterChangeResetsPage(t *testing.T) {
	api := &fakeLister{}
	c := NewListController(api, 20, time.Hour)
	defer c.Close()

	c.SetPage(3)
	c.Wait()
	assert.Equal(t, 3, c.State().Params.Page)

	c.SetStatus(model.StatusPaid)
	c.Wait()
	st := c.State()
	assert.Equal(t, 0, st.Params.Page)
	assert.Equal(t, model.StatusPaid, st.Params.Status)

	c.SetPage(2)
	c.SetSort("amount", "asc")
	c.Wait()
	calls := api.Calls()
	last := calls[len(calls)-1]
	assert.Equal(t, 0, last.Page)
	assert.Equal(t, "amount", last.SortBy)
	assert.Equal(t, query.SortAsc, last.SortDir)
}

func TestListController_SearchIsDebounced(t *testing.T) {
	api := &fakeLister{}
	c := NewListController(api, 20, 30*time.Millisecond)
	defer c.Close()

	c.SetPage(4)
	c.Wait()
	c.SetSearch("c")
	c.SetSearch("cl")
	c.SetSearch("cliente 1")
	assert.Equal(t, "cliente 1", c.State().SearchInput)

	require.Eventually(t, func() bool { return len(api.Calls()) == 2 }, time.Second, 5*time.Millisecond)
	c.Wait()
	time.Sleep(60 * time.Millisecond)

	calls := api.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "cliente 1", calls[1].Search)
	assert.Equal(t, 0, calls[1].Page)
}

func TestListController_FiredTimerDoesNotCutNewDebounce(t *testing.T) {
	api := &fakeLister{}
	c := NewListController(api, 20, 40*time.Millisecond)
	defer c.Close()

	c.SetSearch("cli")
	c.mu.Lock()
	expired := c.timerGen
	c.mu.Unlock()
	c.SetSearch("cliente")

	// the first timer already fired and only now gets the lock
	c.commitSearch(expired)
	c.Wait()
	assert.Empty(t, api.Calls())
	assert.Empty(t, c.State().Params.Search)

	require.Eventually(t, func() bool { return len(api.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	c.Wait()
	assert.Equal(t, "cliente", api.Calls()[0].Search)
}

func TestListController_StaleResponseDropped(t *testing.T) {
	release := make(chan struct{})
	api := &fakeLister{respond: func(call int, p query.Params) (model.Page, error) {
		if call == 1 {
			<-release
			return model.Page{Content: []model.Transaction{txn("old", 1)}, TotalElements: 1, TotalPages: 1}, nil
		}
		return model.Page{Content: []model.Transaction{txn("new", 2)}, TotalElements: 1, TotalPages: 1}, nil
	}}
	c := NewListController(api, 20, time.Hour)
	defer c.Close()

	c.Refresh()
	require.Eventually(t, func() bool { return len(api.Calls()) == 1 }, time.Second, time.Millisecond)
	c.SetStatus(model.StatusPaid)
	require.Eventually(t, func() bool {
		items := c.State().Items
		return len(items) == 1 && items[0].ID == "new"
	}, time.Second, time.Millisecond)

	close(release)
	c.Wait()
	st := c.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, "new", st.Items[0].ID)
	assert.False(t, st.Loading)
}

func TestListController_FailureEmptiesList(t *testing.T) {
	fail := false
	var mu sync.Mutex
	api := &fakeLister{respond: func(int, query.Params) (model.Page, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return model.Page{}, errors.New("boom")
		}
		return model.Page{Content: []model.Transaction{txn("1", 10), txn("2", 15)}, TotalElements: 2, TotalPages: 1}, nil
	}}
	c := NewListController(api, 20, time.Hour)
	defer c.Close()

	c.Refresh()
	c.Wait()
	st := c.State()
	assert.Len(t, st.Items, 2)
	assert.True(t, decimal.NewFromInt(25).Equal(st.PageSubtotal))

	mu.Lock()
	fail = true
	mu.Unlock()
	c.Refresh()
	c.Wait()
	st = c.State()
	assert.True(t, st.Failed)
	assert.NotNil(t, st.Items)
	assert.Empty(t, st.Items)
	assert.Zero(t, st.TotalElements)
	assert.True(t, st.PageSubtotal.IsZero())
}

func TestListController_ClearFiltersKeepsPageSize(t *testing.T) {
	api := &fakeLister{}
	c := NewListController(api, 20, time.Hour)
	defer c.Close()

	c.SetPageSize(50)
	lo := decimal.NewFromInt(100)
	c.SetAmountRange(&lo, nil)
	c.SetBillingStatus(model.BillingPending)
	day := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	c.SetDateRange(&day, &day)
	c.Wait()

	p := c.State().Params
	assert.Equal(t, 50, p.Size)
	require.NotNil(t, p.StartDate)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), *p.StartDate)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 999_000_000, time.UTC), *p.EndDate)

	c.SetSearch("pending text")
	c.ClearFilters()
	c.Wait()
	p = c.State().Params
	assert.Equal(t, 50, p.Size)
	assert.Nil(t, p.MinAmount)
	assert.Nil(t, p.StartDate)
	assert.Empty(t, p.BillingStatus)
	assert.Equal(t, query.DefaultSortBy, p.SortBy)
	assert.Empty(t, c.State().SearchInput)
}

func TestListController_OnChange(t *testing.T) {
	api := &fakeLister{}
	c := NewListController(api, 20, time.Hour)
	defer c.Close()

	got := make(chan ListState, 1)
	c.OnChange(func(s ListState) { got <- s })
	c.SetStatus(model.StatusRefunded)

	select {
	case s := <-got:
		assert.Equal(t, model.StatusRefunded, s.Params.Status)
	case <-time.After(time.Second):
		t.Fatal("listener not called")
	}
}

func TestListController_CloseStopsDebounce(t *testing.T) {
	api := &fakeLister{}
	c := NewListController(api, 20, 20*time.Millisecond)
	c.SetSearch("abc")
	c.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, api.Calls())

	c.Refresh()
	assert.Empty(t, api.Calls())
}
