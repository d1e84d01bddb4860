package query

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
)

// Run filters, sorts and slices items into a page. It never modifies items.
func Run(items []model.Transaction, p Params) model.Page {
	p = p.Normalize()

	filtered := make([]model.Transaction, 0, len(items))
	for _, t := range items {
		if Match(t, p) {
			filtered = append(filtered, t)
		}
	}
	Sort(filtered, p.SortBy, p.SortDir)

	return Paginate(filtered, p.Page, p.Size)
}

// Match reports whether t satisfies every active filter of p.
func Match(t model.Transaction, p Params) bool {
	if p.Status != "" && t.Status != p.Status {
		return false
	}
	if p.BillingStatus != "" && t.BillingStatus != p.BillingStatus {
		return false
	}
	if p.MinAmount != nil && t.Amount.LessThan(*p.MinAmount) {
		return false
	}
	if p.MaxAmount != nil && t.Amount.GreaterThan(*p.MaxAmount) {
		return false
	}
	if p.Search != "" && !matchSearch(t, strings.ToLower(p.Search)) {
		return false
	}
	if p.StartDate != nil && t.CreatedAt.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && t.CreatedAt.After(*p.EndDate) {
		return false
	}
	return true
}

func matchSearch(t model.Transaction, needle string) bool {
	if strings.Contains(strings.ToLower(t.ID), needle) ||
		strings.Contains(strings.ToLower(t.ExternalID), needle) {
		return true
	}
	return t.CustomerName != nil && strings.Contains(strings.ToLower(*t.CustomerName), needle)
}

// Sort orders items in place. Null fields come first in both directions and
// an unknown field leaves the order as it is.
func Sort(items []model.Transaction, sortBy, sortDir string) {
	key, ok := sortKeys[sortBy]
	if !ok {
		return
	}
	desc := sortDir != SortAsc
	sort.SliceStable(items, func(i, j int) bool {
		return compare(key(items[i]), key(items[j]), desc) < 0
	})
}

// Paginate slices an already filtered and sorted list.
func Paginate(items []model.Transaction, page, size int) model.Page {
	if size <= 0 {
		size = DefaultSize
	}
	total := len(items)
	res := model.Page{
		Content:       []model.Transaction{},
		TotalElements: total,
		TotalPages:    TotalPages(total, size),
		Number:        page,
		Size:          size,
	}
	if page < 0 || page >= res.TotalPages {
		return res
	}
	start := page * size
	if start >= total {
		return res
	}
	end := start + min(size, total-start)
	res.Content = append(res.Content, items[start:end]...)
	return res
}

// TotalPages is never below 1, so an empty result still has a first page.
func TotalPages(total, size int) int {
	if size <= 0 {
		size = DefaultSize
	}
	return max(1, int(math.Ceil(float64(total)/float64(size))))
}

// compare is a three-way comparison where a nil value is always less,
// no matter the direction.
func compare(a, b any, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	c := compareValues(a, b)
	if desc {
		return -c
	}
	return c
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		return strings.Compare(av, b.(string))
	case time.Time:
		return av.Compare(b.(time.Time))
	case decimalValue:
		return av.Cmp(b.(decimalValue).Decimal)
	}
	return 0
}
