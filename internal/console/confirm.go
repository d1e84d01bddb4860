package console

import (
	"context"
	"fmt"
	"sync"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/pkg/logger"
	"github.com/gfconnector/billing-console/pkg/prom"
)

// ReviewBatchSize is how many pending transactions one review session loads.
const ReviewBatchSize = 50

type PendingLister interface {
	PendingTransactions(ctx context.Context, page, size int) (model.Page, error)
}

type BillingConfirmer interface {
	ConfirmBilling(ctx context.Context, id string) (model.ActionResult, error)
}

type ReviewAPI interface {
	PendingLister
	BillingConfirmer
}

type ReviewState string

const (
	ReviewIdle      ReviewState = "idle"
	ReviewReviewing ReviewState = "reviewing"
	ReviewEmpty     ReviewState = "empty"
)

// ConfirmationWorkflow steps an operator through pending transactions one at a time.
// Navigation is local; only Confirm talks to the backend.
type ConfirmationWorkflow struct {
	api      ReviewAPI
	notifier Notifier
	onDone   func()

	mu    sync.Mutex
	state ReviewState
	queue []model.Transaction
	index int
}

// NewConfirmationWorkflow builds an idle workflow. onDone runs when the queue empties
// after a confirmation, which is where the caller goes back to the list.
func NewConfirmationWorkflow(api ReviewAPI, notifier Notifier, onDone func()) *ConfirmationWorkflow {
	return &ConfirmationWorkflow{api: api, notifier: notifier, onDone: onDone, state: ReviewIdle}
}

// Start loads up to ReviewBatchSize pending transactions.
func (w *ConfirmationWorkflow) Start(ctx context.Context) error {
	page, err := w.api.PendingTransactions(ctx, 0, ReviewBatchSize)
	if err != nil {
		w.notify(ToastError, "Failed to load pending transactions")
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.queue = append([]model.Transaction{}, page.Content...)
	w.index = 0
	if len(w.queue) == 0 {
		w.state = ReviewEmpty
		return nil
	}
	w.state = ReviewReviewing
	return nil
}

func (w *ConfirmationWorkflow) State() ReviewState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Current returns the transaction under review.
func (w *ConfirmationWorkflow) Current() (model.Transaction, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != ReviewReviewing {
		return model.Transaction{}, false
	}
	return w.queue[w.index], true
}

// Position returns the 0-based index and the queue length.
func (w *ConfirmationWorkflow) Position() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index, len(w.queue)
}

func (w *ConfirmationWorkflow) Next() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != ReviewReviewing || w.index >= len(w.queue)-1 {
		return false
	}
	w.index++
	return true
}

func (w *ConfirmationWorkflow) Previous() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != ReviewReviewing || w.index == 0 {
		return false
	}
	w.index--
	return true
}

// Confirm bills the current transaction and drops it from the queue. On failure the
// transaction stays where it is.
func (w *ConfirmationWorkflow) Confirm(ctx context.Context) error {
	current, ok := w.Current()
	if !ok {
		return fmt.Errorf("no transaction under review")
	}

	res, err := w.api.ConfirmBilling(ctx, current.ID)
	prom.RecordConfirmation(prom.Result(err))
	if err != nil {
		logger.Warn("billing confirmation failed", "transaction_id", current.ID, "error", err)
		w.notify(ToastError, "Failed to confirm billing: "+err.Error())
		return err
	}
	w.notify(ToastSuccess, confirmedMessage(current.ID, res))

	w.mu.Lock()
	for i, t := range w.queue {
		if t.ID == current.ID {
			w.queue = append(w.queue[:i], w.queue[i+1:]...)
			break
		}
	}
	done := len(w.queue) == 0
	if done {
		w.state = ReviewEmpty
		w.index = 0
	} else if w.index > len(w.queue)-1 {
		w.index = len(w.queue) - 1
	}
	w.mu.Unlock()

	if done && w.onDone != nil {
		w.onDone()
	}
	return nil
}

func confirmedMessage(id string, res model.ActionResult) string {
	if res.DocumentNumber != "" {
		return fmt.Sprintf("Billing confirmed for %s, invoice %s", id, res.DocumentNumber)
	}
	return "Billing confirmed for " + id
}

func (w *ConfirmationWorkflow) notify(kind ToastKind, msg string) {
	if w.notifier != nil {
		w.notifier.Notify(kind, msg)
	}
}
