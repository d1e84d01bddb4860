package console

import (
	"context"
	"sync"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/query"
	"github.com/gfconnector/billing-console/pkg/logger"
	"github.com/shopspring/decimal"
)

const DefaultSearchDebounce = 400 * time.Millisecond

type TransactionLister interface {
	ListTransactions(ctx context.Context, p query.Params) (model.Page, error)
}

// ListState is a snapshot of the list view.
type ListState struct {
	Params        query.Params
	SearchInput   string
	Items         []model.Transaction
	TotalElements int
	TotalPages    int
	PageSubtotal  decimal.Decimal
	Loading       bool
	Failed        bool
}

// ListController owns filters and paging for the transaction list and refetches
// whenever they change. Responses are applied in request order: a response older
// than the last applied one is dropped.
type ListController struct {
	api      TransactionLister
	debounce time.Duration

	mu          sync.Mutex
	params      query.Params
	searchInput string
	timer       *time.Timer
	timerGen    uint64
	issued      uint64
	applied     uint64
	page        model.Page
	failed      bool
	listeners   []func(ListState)
	closed      bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewListController(api TransactionLister, pageSize int, debounce time.Duration) *ListController {
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}
	p := query.DefaultParams()
	if pageSize > 0 {
		p.Size = pageSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ListController{
		api:      api,
		debounce: debounce,
		params:   p,
		page:     model.Page{Content: []model.Transaction{}},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnChange registers fn to run after every applied fetch.
func (c *ListController) OnChange(fn func(ListState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *ListController) State() ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *ListController) stateLocked() ListState {
	items := make([]model.Transaction, len(c.page.Content))
	copy(items, c.page.Content)
	return ListState{
		Params:        c.params,
		SearchInput:   c.searchInput,
		Items:         items,
		TotalElements: c.page.TotalElements,
		TotalPages:    c.page.TotalPages,
		PageSubtotal:  c.page.Subtotal(),
		Loading:       c.issued != c.applied,
		Failed:        c.failed,
	}
}

// Refresh refetches with the current parameters.
func (c *ListController) Refresh() {
	c.update(func(p *query.Params) {})
}

func (c *ListController) SetStatus(s model.TransactionStatus) {
	c.setFilter(func(p *query.Params) { p.Status = s })
}

func (c *ListController) SetBillingStatus(s model.BillingStatus) {
	c.setFilter(func(p *query.Params) { p.BillingStatus = s })
}

func (c *ListController) SetAmountRange(lo, hi *decimal.Decimal) {
	c.setFilter(func(p *query.Params) {
		p.MinAmount = lo
		p.MaxAmount = hi
	})
}

// SetDateRange filters by calendar day: start widens to 00:00:00.000 and end to 23:59:59.999.
func (c *ListController) SetDateRange(start, end *time.Time) {
	c.setFilter(func(p *query.Params) {
		p.StartDate, p.EndDate = nil, nil
		if start != nil {
			v := query.DayStart(*start)
			p.StartDate = &v
		}
		if end != nil {
			v := query.DayEnd(*end)
			p.EndDate = &v
		}
	})
}

func (c *ListController) SetSort(by, dir string) {
	c.setFilter(func(p *query.Params) {
		p.SortBy = by
		p.SortDir = dir
	})
}

func (c *ListController) SetPage(page int) {
	c.update(func(p *query.Params) { p.Page = page })
}

// SetPageSize changes the page size and goes back to the first page.
func (c *ListController) SetPageSize(size int) {
	c.setFilter(func(p *query.Params) { p.Size = size })
}

// ClearFilters restores the default filters and drops any pending search input.
func (c *ListController) ClearFilters() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.searchInput = ""
	c.mu.Unlock()
	c.setFilter(func(p *query.Params) {
		size := p.Size
		*p = query.DefaultParams()
		p.Size = size
	})
}

// SetSearch records typed text. It is committed once no new text arrives for the debounce window.
func (c *ListController) SetSearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.searchInput = text
	c.stopTimerLocked()
	gen := c.timerGen
	c.timer = time.AfterFunc(c.debounce, func() { c.commitSearch(gen) })
}

// CommitSearch applies the typed text immediately.
func (c *ListController) CommitSearch() {
	c.commitSearch(0)
}

// commitSearch with a non-zero gen comes from a debounce timer and is a no-op
// once that timer was replaced or stopped.
func (c *ListController) commitSearch(gen uint64) {
	c.mu.Lock()
	if gen != 0 && (gen != c.timerGen || c.timer == nil) {
		c.mu.Unlock()
		return
	}
	c.stopTimerLocked()
	text := c.searchInput
	c.mu.Unlock()
	c.setFilter(func(p *query.Params) { p.Search = text })
}

func (c *ListController) setFilter(fn func(p *query.Params)) {
	c.update(func(p *query.Params) {
		fn(p)
		p.Page = 0
	})
}

func (c *ListController) update(fn func(p *query.Params)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fn(&c.params)
	c.params = c.params.Normalize()
	c.issued++
	seq, p := c.issued, c.params
	c.wg.Add(1)
	c.mu.Unlock()

	go c.fetch(seq, p)
}

func (c *ListController) fetch(seq uint64, p query.Params) {
	defer c.wg.Done()
	page, err := c.api.ListTransactions(c.ctx, p)

	c.mu.Lock()
	if seq <= c.applied || c.closed {
		c.mu.Unlock()
		logger.Debug("stale list response dropped", "seq", seq)
		return
	}
	c.applied = seq
	if err != nil {
		logger.Warn("transaction list fetch failed", "error", err)
		c.page = model.Page{Content: []model.Transaction{}, Number: p.Page, Size: p.Size}
		c.failed = true
	} else {
		if page.Content == nil {
			page.Content = []model.Transaction{}
		}
		c.page = page
		c.failed = false
	}
	state := c.stateLocked()
	listeners := append([]func(ListState){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func (c *ListController) stopTimerLocked() {
	c.timerGen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Wait blocks until every issued fetch has returned.
func (c *ListController) Wait() {
	c.wg.Wait()
}

// Close stops the debounce timer and ignores any fetch still in flight.
func (c *ListController) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}
