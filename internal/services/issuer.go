package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/pkg/logger"
)

// InvoiceIssuer is the invoicing provider. gateways.InvoicerClient talks to a remote one,
// LocalIssuer fakes it in process.
type InvoiceIssuer interface {
	IssueInvoice(ctx context.Context, t model.Transaction) (model.IssuedDocument, error)
	IssueCreditNote(ctx context.Context, t model.Transaction, reason string) (model.IssuedDocument, error)
	FetchPDF(ctx context.Context, number string) ([]byte, error)
	ResendInvoice(ctx context.Context, number, email string) error
}

type LocalIssuer struct {
	seq atomic.Int64
	now func() time.Time
}

func NewLocalIssuer() *LocalIssuer {
	return &LocalIssuer{now: time.Now}
}

func (l *LocalIssuer) IssueInvoice(_ context.Context, t model.Transaction) (model.IssuedDocument, error) {
	n := l.seq.Add(1)
	return model.IssuedDocument{
		Number:   fmt.Sprintf("FC-0001-%08d", n),
		CAE:      fmt.Sprintf("7%013d", n),
		IssuedAt: l.now(),
	}, nil
}

// IssueCreditNote numbers notes after the transaction, NC-(1000+id) for numeric ids.
func (l *LocalIssuer) IssueCreditNote(_ context.Context, t model.Transaction, _ string) (model.IssuedDocument, error) {
	return model.IssuedDocument{Number: CreditNoteNumber(t.ID), IssuedAt: l.now()}, nil
}

func (l *LocalIssuer) FetchPDF(_ context.Context, number string) ([]byte, error) {
	return StubPDF(number), nil
}

func (l *LocalIssuer) ResendInvoice(_ context.Context, number, email string) error {
	logger.Info("invoice resend simulated", "invoice", number, "email", email)
	return nil
}

func CreditNoteNumber(id string) string {
	if n, err := strconv.Atoi(id); err == nil {
		return fmt.Sprintf("NC-%d", 1000+n)
	}
	return "NC-" + id
}

// StubPDF renders a one page PDF whose only content is the document number.
func StubPDF(number string) []byte {
	stream := fmt.Sprintf("BT /F1 18 Tf 72 720 Td (%s) Tj ET", pdfEscape(number))
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func pdfEscape(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '(', ')', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
