package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/pkg/logger"
	"github.com/google/uuid"
)

// DeliveryPublisher hands invoice deliveries to the background processor.
type DeliveryPublisher interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

type ActiveSettingsProvider interface {
	Active(ctx context.Context) (model.BillingSettings, error)
}

type DocumentService struct {
	repo      TransactionRepository
	issuer    InvoiceIssuer
	publisher DeliveryPublisher
	settings  ActiveSettingsProvider
}

// NewDocumentService builds the document flows. publisher and settings are optional;
// without a publisher resends call the issuer directly.
func NewDocumentService(repo TransactionRepository, issuer InvoiceIssuer, publisher DeliveryPublisher, settings ActiveSettingsProvider) *DocumentService {
	return &DocumentService{
		repo:      repo,
		issuer:    issuer,
		publisher: publisher,
		settings:  settings,
	}
}

func (s *DocumentService) InvoicePDF(ctx context.Context, id string) ([]byte, string, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !t.HasInvoice() {
		return nil, "", ErrNoDocument
	}
	return s.fetch(ctx, *t.InvoiceNumber)
}

func (s *DocumentService) CreditNotePDF(ctx context.Context, id string) ([]byte, string, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !t.HasCreditNote() {
		return nil, "", ErrNoDocument
	}
	return s.fetch(ctx, *t.CreditNoteNumber)
}

func (s *DocumentService) fetch(ctx context.Context, number string) ([]byte, string, error) {
	pdf, err := s.issuer.FetchPDF(ctx, number)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrIssuingFailed, err)
	}
	return pdf, number + ".pdf", nil
}

// ResendInvoice queues a new delivery of the invoice e-mail.
func (s *DocumentService) ResendInvoice(ctx context.Context, id string) (model.InvoiceDelivery, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return model.InvoiceDelivery{}, err
	}
	if !t.HasInvoice() {
		return model.InvoiceDelivery{}, ErrNoDocument
	}

	job := model.InvoiceDelivery{
		ID:            uuid.NewString(),
		TransactionID: t.ID,
		InvoiceNumber: *t.InvoiceNumber,
		RequestedAt:   time.Now().UTC(),
	}
	if s.settings != nil {
		if active, err := s.settings.Active(ctx); err == nil {
			job.Email = active.EmailFacturacion
		}
	}

	if s.publisher == nil {
		if err := s.issuer.ResendInvoice(ctx, job.InvoiceNumber, job.Email); err != nil {
			return model.InvoiceDelivery{}, fmt.Errorf("%w: %v", ErrIssuingFailed, err)
		}
		return job, nil
	}

	msgID, err := s.publisher.PublishJSON(ctx, job, map[string]string{"transaction_id": t.ID})
	if err != nil {
		return model.InvoiceDelivery{}, fmt.Errorf("publish invoice delivery: %w", err)
	}
	logger.Info("invoice delivery queued", "transaction_id", t.ID, "invoice", job.InvoiceNumber, "stream_id", msgID)
	return job, nil
}
