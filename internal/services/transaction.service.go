package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/query"
	"github.com/gfconnector/billing-console/pkg/logger"
	"github.com/gfconnector/billing-console/pkg/prom"
)

const DefaultRefundReason = "Refund requested by customer"

// TransactionRepository is satisfied by store.MemoryStore and repository.TransactionRepository.
type TransactionRepository interface {
	List(ctx context.Context, p query.Params) (model.Page, error)
	ListPending(ctx context.Context, page, size int) (model.Page, error)
	Get(ctx context.Context, id string) (model.Transaction, error)
	Save(ctx context.Context, t model.Transaction) error
	All(ctx context.Context) ([]model.Transaction, error)
}

type TransactionService struct {
	repo   TransactionRepository
	issuer InvoiceIssuer
	locker Locker
	now    func() time.Time
}

// NewTransactionService wires the billing flows. locker may be nil when no redis is configured.
func NewTransactionService(repo TransactionRepository, issuer InvoiceIssuer, locker Locker) *TransactionService {
	return &TransactionService{
		repo:   repo,
		issuer: issuer,
		locker: locker,
		now:    time.Now,
	}
}

func (s *TransactionService) List(ctx context.Context, p query.Params) (model.Page, error) {
	return s.repo.List(ctx, p)
}

func (s *TransactionService) ListPending(ctx context.Context, page, size int) (model.Page, error) {
	res, err := s.repo.ListPending(ctx, page, size)
	if err == nil {
		prom.SetPendingBacklog("api", res.TotalElements)
	}
	return res, err
}

func (s *TransactionService) Get(ctx context.Context, id string) (model.Transaction, error) {
	return s.repo.Get(ctx, id)
}

// InitializeBillingStatus backfills billing status on rows that predate it.
// Running it twice changes nothing the second time.
func (s *TransactionService) InitializeBillingStatus(ctx context.Context) (model.InitializeResult, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return model.InitializeResult{}, err
	}

	updated := 0
	for _, t := range all {
		next := initialBillingStatus(t)
		if next == t.BillingStatus {
			continue
		}
		t.BillingStatus = next
		if err := s.repo.Save(ctx, t); err != nil {
			return model.InitializeResult{}, fmt.Errorf("save transaction %s: %w", t.ID, err)
		}
		updated++
	}

	logger.Info("billing status initialized", "updated", updated, "scanned", len(all))
	return model.InitializeResult{
		Status:       "success",
		Message:      "Billing status initialized",
		UpdatedCount: updated,
	}, nil
}

func initialBillingStatus(t model.Transaction) model.BillingStatus {
	switch {
	case t.Status == model.StatusPaid && t.BillingStatus == "":
		if t.HasInvoice() {
			return model.BillingBilled
		}
		return model.BillingPending
	case t.Status == model.StatusPaid && t.BillingStatus == model.BillingNotApplicable:
		return model.BillingPending
	case t.BillingStatus == "":
		return model.BillingNotApplicable
	}
	return t.BillingStatus
}

// ResetErrorToPending moves PAID transactions stuck in error without an invoice back to pending.
func (s *TransactionService) ResetErrorToPending(ctx context.Context) (model.InitializeResult, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return model.InitializeResult{}, err
	}
	updated := 0
	for _, t := range all {
		if t.Status != model.StatusPaid || t.BillingStatus != model.BillingError || t.HasInvoice() {
			continue
		}
		t.BillingStatus = model.BillingPending
		if err := s.repo.Save(ctx, t); err != nil {
			return model.InitializeResult{}, fmt.Errorf("save transaction %s: %w", t.ID, err)
		}
		updated++
	}
	return model.InitializeResult{
		Status:       "success",
		Message:      "Billing errors reset to pending",
		UpdatedCount: updated,
	}, nil
}

func confirmable(t model.Transaction) bool {
	if t.Status != model.StatusPaid {
		return false
	}
	switch t.BillingStatus {
	case "", model.BillingPending, model.BillingError:
		return true
	}
	return false
}

// ConfirmBilling issues the invoice for a PAID transaction awaiting billing.
// A provider failure leaves the transaction in billing status error.
func (s *TransactionService) ConfirmBilling(ctx context.Context, id string) (model.ActionResult, error) {
	res, err := s.confirmBilling(ctx, id)
	switch {
	case err == nil:
		prom.RecordConfirmation(prom.ResultSuccess)
	case errors.Is(err, ErrNotConfirmable), errors.Is(err, ErrConfirmationInProgress):
		prom.RecordConfirmation(prom.ResultSkipped)
	default:
		prom.RecordConfirmation(prom.ResultFailure)
	}
	return res, err
}

func (s *TransactionService) confirmBilling(ctx context.Context, id string) (model.ActionResult, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, id)
		if err != nil {
			return model.ActionResult{}, err
		}
		defer release()
	}

	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return model.ActionResult{}, err
	}
	if !confirmable(t) {
		return model.ActionResult{}, fmt.Errorf("%w: status %s, billing status %q", ErrNotConfirmable, t.Status, t.BillingStatus)
	}

	started := time.Now()
	doc, err := s.issuer.IssueInvoice(ctx, t)
	prom.ObserveIssueDuration("invoice", time.Since(started).Seconds())
	if err != nil {
		t.BillingStatus = model.BillingError
		if saveErr := s.repo.Save(ctx, t); saveErr != nil {
			logger.Error("failed to mark billing error", "transaction_id", id, "error", saveErr)
		}
		logger.Warn("invoice issuing failed", "transaction_id", id, "error", err)
		return model.ActionResult{}, fmt.Errorf("%w: %v", ErrIssuingFailed, err)
	}

	t.BillingStatus = model.BillingBilled
	t.InvoiceNumber = model.StringPtr(doc.Number)
	if err := s.repo.Save(ctx, t); err != nil {
		return model.ActionResult{}, fmt.Errorf("save transaction %s: %w", id, err)
	}

	logger.Info("billing confirmed", "transaction_id", id, "invoice", doc.Number)
	return model.ActionResult{
		Status:         "success",
		Message:        "Billing confirmed",
		TransactionID:  id,
		DocumentNumber: doc.Number,
		CAE:            doc.CAE,
	}, nil
}

// Refund issues a credit note for a PAID transaction and marks it REFUNDED.
func (s *TransactionService) Refund(ctx context.Context, id, reason string) (model.ActionResult, error) {
	res, err := s.refund(ctx, id, reason)
	prom.RecordRefund(prom.Result(err))
	return res, err
}

func (s *TransactionService) refund(ctx context.Context, id, reason string) (model.ActionResult, error) {
	if reason == "" {
		reason = DefaultRefundReason
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return model.ActionResult{}, err
	}
	if t.Status != model.StatusPaid {
		return model.ActionResult{}, fmt.Errorf("%w: status %s", ErrNotRefundable, t.Status)
	}

	started := time.Now()
	doc, err := s.issuer.IssueCreditNote(ctx, t, reason)
	prom.ObserveIssueDuration("credit_note", time.Since(started).Seconds())
	if err != nil {
		return model.ActionResult{}, fmt.Errorf("%w: %v", ErrIssuingFailed, err)
	}

	t.Status = model.StatusRefunded
	t.CreditNoteNumber = model.StringPtr(doc.Number)
	t.RefundReason = model.StringPtr(reason)
	t.RefundedAt = model.TimePtr(s.now())
	if err := s.repo.Save(ctx, t); err != nil {
		return model.ActionResult{}, fmt.Errorf("save transaction %s: %w", id, err)
	}

	logger.Info("transaction refunded", "transaction_id", id, "credit_note", doc.Number)
	return model.ActionResult{
		Status:         "success",
		Message:        "Refund processed",
		TransactionID:  id,
		DocumentNumber: doc.Number,
		CAE:            doc.CAE,
	}, nil
}
