package query

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/shopspring/decimal"
)

const (
	DefaultSortBy = "createdAt"
	DefaultSize   = 20

	SortAsc  = "asc"
	SortDesc = "desc"

	dateOnly = "2006-01-02"
)

// Params is the query contract shared by the in-memory engine, the SQL store and the API client.
type Params struct {
	Status        model.TransactionStatus
	BillingStatus model.BillingStatus
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
	Search        string
	StartDate     *time.Time
	EndDate       *time.Time
	SortBy        string
	SortDir       string
	Page          int
	Size          int
}

func DefaultParams() Params {
	return Params{SortBy: DefaultSortBy, SortDir: SortDesc, Size: DefaultSize}
}

// Normalize fills defaults for the sort and page size. Page is left untouched,
// a negative page simply yields an empty slice.
func (p Params) Normalize() Params {
	if p.SortBy == "" {
		p.SortBy = DefaultSortBy
	}
	if strings.EqualFold(p.SortDir, SortAsc) {
		p.SortDir = SortAsc
	} else {
		p.SortDir = SortDesc
	}
	if p.Size <= 0 {
		p.Size = DefaultSize
	}
	return p
}

// ParseParams reads list parameters from a query string. Malformed numbers and
// dates are ignored the same way an empty value is.
func ParseParams(v url.Values) Params {
	p := DefaultParams()
	p.Status = model.TransactionStatus(strings.TrimSpace(v.Get("status")))
	p.BillingStatus = model.BillingStatus(strings.TrimSpace(v.Get("billingStatus")))
	p.MinAmount = parseDecimal(v.Get("minAmount"))
	p.MaxAmount = parseDecimal(v.Get("maxAmount"))
	p.Search = strings.TrimSpace(v.Get("search"))
	p.StartDate = ParseTime(v.Get("startDate"))
	p.EndDate = ParseTime(v.Get("endDate"))
	if s := v.Get("sortBy"); s != "" {
		p.SortBy = s
	}
	if s := v.Get("sortDir"); s != "" {
		p.SortDir = strings.ToLower(s)
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil {
		p.Page = n
	}
	if n, err := strconv.Atoi(v.Get("size")); err == nil && n > 0 {
		p.Size = n
	}
	return p.Normalize()
}

// Values encodes the non-empty params back into a query string.
func (p Params) Values() url.Values {
	p = p.Normalize()
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("size", strconv.Itoa(p.Size))
	v.Set("sortBy", p.SortBy)
	v.Set("sortDir", p.SortDir)
	if p.Status != "" {
		v.Set("status", string(p.Status))
	}
	if p.BillingStatus != "" {
		v.Set("billingStatus", string(p.BillingStatus))
	}
	if p.MinAmount != nil {
		v.Set("minAmount", p.MinAmount.String())
	}
	if p.MaxAmount != nil {
		v.Set("maxAmount", p.MaxAmount.String())
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.StartDate != nil {
		v.Set("startDate", p.StartDate.UTC().Format(time.RFC3339Nano))
	}
	if p.EndDate != nil {
		v.Set("endDate", p.EndDate.UTC().Format(time.RFC3339Nano))
	}
	return v
}

// ParseTime accepts RFC3339 timestamps or plain dates, which are read as UTC midnight.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return &t
	}
	if t, err := time.Parse(dateOnly, s); err == nil {
		return &t
	}
	return nil
}

// DayStart widens a date picked in the console to the first instant of that day.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayEnd widens a date to its last millisecond, so an end date includes the whole day.
func DayEnd(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

func parseDecimal(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
