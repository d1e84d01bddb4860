package processor

import (
	"context"
	"errors"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/queue"
	"github.com/gfconnector/billing-console/pkg/logger"
	"github.com/gfconnector/billing-console/pkg/prom"
)

// InvoiceSender is the part of the invoicing provider the processor needs.
type InvoiceSender interface {
	ResendInvoice(ctx context.Context, number, email string) error
}

type DeliveryProcessor struct {
	sender      InvoiceSender
	idempotency *IdempotencyService
}

func NewDeliveryProcessor(sender InvoiceSender, idempotency *IdempotencyService) *DeliveryProcessor {
	return &DeliveryProcessor{sender: sender, idempotency: idempotency}
}

func (p *DeliveryProcessor) GetType() string {
	return "invoice_delivery"
}

// Process sends one invoice e-mail. Returning nil acks the stream entry.
func (p *DeliveryProcessor) Process(ctx context.Context, msg *queue.Message) error {
	var job model.InvoiceDelivery
	if err := msg.Decode(&job); err != nil || job.ID == "" || job.InvoiceNumber == "" {
		// a malformed payload never succeeds, so drop it
		logger.Error("invalid delivery payload", "stream_id", msg.ID, "error", err)
		prom.RecordDelivery(prom.ResultFailure)
		return nil
	}

	pc, err := p.idempotency.AcquireProcessingLock(ctx, job.ID)
	switch {
	case errors.Is(err, ErrAlreadyProcessed):
		logger.Info("delivery already processed, skipping", "job_id", job.ID)
		prom.RecordDelivery(prom.ResultSkipped)
		return nil
	case errors.Is(err, ErrMaxRetriesExceeded):
		logger.Error("delivery retries exhausted", "job_id", job.ID, "invoice", job.InvoiceNumber)
		prom.RecordDelivery(prom.ResultFailure)
		return nil
	case err != nil:
		return err
	}
	defer p.idempotency.ReleaseLock(ctx, pc)

	if err := p.sender.ResendInvoice(ctx, job.InvoiceNumber, job.Email); err != nil {
		_ = p.idempotency.MarkFailure(ctx, pc, err)
		prom.RecordDelivery(prom.ResultFailure)
		return err
	}

	if err := p.idempotency.MarkSuccess(ctx, pc); err != nil {
		logger.Error("failed to mark delivery processed", "job_id", job.ID, "error", err)
	}
	logger.Info("invoice delivered",
		"job_id", job.ID,
		"transaction_id", job.TransactionID,
		"invoice", job.InvoiceNumber,
		"retry_count", pc.RetryCount)
	prom.RecordDelivery(prom.ResultSuccess)
	return nil
}
