package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/query"
	"github.com/gfconnector/billing-console/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = model.ErrNotFound

// sortColumns maps the API sort fields onto table columns. Anything else falls back to created_at.
var sortColumns = map[string]string{
	"id":               "id",
	"externalId":       "external_id",
	"status":           "status",
	"billingStatus":    "billing_status",
	"amount":           "amount",
	"currency":         "currency",
	"createdAt":        "created_at",
	"capturedAt":       "captured_at",
	"refundedAt":       "refunded_at",
	"customerName":     "customer_name",
	"customerDoc":      "customer_doc",
	"invoiceNumber":    "invoice_number",
	"creditNoteNumber": "credit_note_number",
	"refundReason":     "refund_reason",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

func (r *TransactionRepository) List(ctx context.Context, p query.Params) (model.Page, error) {
	p = p.Normalize()
	q := applyFilters(r.Read(ctx).Model(&TransactionEntity{}), p)
	return r.page(q, orderBy(p.SortBy, p.SortDir), p.Page, p.Size)
}

// ListPending pages over PAID transactions whose billing is pending or was never set.
func (r *TransactionRepository) ListPending(ctx context.Context, page, size int) (model.Page, error) {
	if size <= 0 {
		size = query.DefaultSize
	}
	q := r.Read(ctx).Model(&TransactionEntity{}).
		Where("status = ?", string(model.StatusPaid)).
		Where("(billing_status = ? OR billing_status IS NULL OR billing_status = '')", string(model.BillingPending))
	return r.page(q, "created_at DESC, id", page, size)
}

func (r *TransactionRepository) Get(ctx context.Context, id string) (model.Transaction, error) {
	var entity TransactionEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Transaction{}, ErrNotFound
		}
		return model.Transaction{}, err
	}
	return toTransactionModel(&entity), nil
}

// Save inserts the transaction or overwrites every column of an existing one.
func (r *TransactionRepository) Save(ctx context.Context, t model.Transaction) error {
	return r.Write(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(toTransactionEntity(t)).
		Error
}

// Seed inserts the given transactions, leaving rows that already exist untouched.
func (r *TransactionRepository) Seed(ctx context.Context, items []model.Transaction) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	entities := make([]*TransactionEntity, len(items))
	for i, t := range items {
		entities[i] = toTransactionEntity(t)
	}
	res := r.Write(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(entities, 100)
	return res.RowsAffected, res.Error
}

func (r *TransactionRepository) All(ctx context.Context) ([]model.Transaction, error) {
	var entities []*TransactionEntity
	if err := r.Read(ctx).Order("created_at DESC, id").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

func (r *TransactionRepository) page(q *gorm.DB, order string, page, size int) (model.Page, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return model.Page{}, fmt.Errorf("count transactions: %w", err)
	}

	if size <= 0 {
		size = query.DefaultSize
	}
	res := model.Page{
		Content:       []model.Transaction{},
		TotalElements: int(total),
		TotalPages:    query.TotalPages(int(total), size),
		Number:        page,
		Size:          size,
	}
	// page stays below TotalPages, so page*size cannot overflow.
	if page < 0 || page >= res.TotalPages || int64(page)*int64(size) >= total {
		return res, nil
	}

	var entities []*TransactionEntity
	if err := q.Order(order).Limit(size).Offset(page * size).Find(&entities).Error; err != nil {
		return model.Page{}, fmt.Errorf("list transactions: %w", err)
	}
	res.Content = toTransactionModels(entities)
	return res, nil
}

func applyFilters(q *gorm.DB, p query.Params) *gorm.DB {
	if p.Status != "" {
		q = q.Where("status = ?", string(p.Status))
	}
	if p.BillingStatus != "" {
		q = q.Where("billing_status = ?", string(p.BillingStatus))
	}
	if p.MinAmount != nil {
		q = q.Where("amount >= ?", *p.MinAmount)
	}
	if p.MaxAmount != nil {
		q = q.Where("amount <= ?", *p.MaxAmount)
	}
	if p.Search != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(p.Search)) + "%"
		q = q.Where(
			`(LOWER(id) LIKE ? ESCAPE '\' OR LOWER(external_id) LIKE ? ESCAPE '\' OR LOWER(COALESCE(customer_name, '')) LIKE ? ESCAPE '\')`,
			like, like, like,
		)
	}
	if p.StartDate != nil {
		q = q.Where("created_at >= ?", p.StartDate.UTC())
	}
	if p.EndDate != nil {
		q = q.Where("created_at <= ?", p.EndDate.UTC())
	}
	return q
}

// orderBy keeps nulls first in both directions and breaks ties by id.
func orderBy(sortBy, sortDir string) string {
	col, ok := sortColumns[sortBy]
	if !ok {
		return "id"
	}
	dir := "DESC"
	if sortDir == query.SortAsc {
		dir = "ASC"
	}
	if col == "id" {
		return "id " + dir
	}
	return fmt.Sprintf("(%s IS NULL) DESC, %s %s, id", col, col, dir)
}
