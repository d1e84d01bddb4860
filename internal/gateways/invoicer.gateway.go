package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
)

var (
	ErrCircuitOpen = errors.New("invoicing provider circuit open")
	ErrRejected    = errors.New("invoicing provider rejected the request")
)

// Request/Response types
type InvoiceRequest struct {
	TransactionID string          `json:"transaction_id"`
	ExternalID    string          `json:"external_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CustomerName  string          `json:"customer_name,omitempty"`
	CustomerDoc   string          `json:"customer_doc,omitempty"`
}

type CreditNoteRequest struct {
	TransactionID string          `json:"transaction_id"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Reason        string          `json:"reason"`
}

type ResendRequest struct {
	Email string `json:"email,omitempty"`
}

type DocumentResponse struct {
	Number   string    `json:"number"`
	CAE      string    `json:"cae,omitempty"`
	IssuedAt time.Time `json:"issued_at"`
}

type ProviderMetrics struct {
	TotalRequests    atomic.Int64
	SuccessfulReqs   atomic.Int64
	FailedReqs       atomic.Int64
	TotalLatencyMs   atomic.Int64
	ConsecutiveFails atomic.Int32
}

func (m *ProviderMetrics) RecordSuccess(latencyMs int64) {
	m.TotalRequests.Add(1)
	m.SuccessfulReqs.Add(1)
	m.TotalLatencyMs.Add(latencyMs)
	m.ConsecutiveFails.Store(0)
}

func (m *ProviderMetrics) RecordFailure() {
	m.TotalRequests.Add(1)
	m.FailedReqs.Add(1)
	m.ConsecutiveFails.Add(1)
}

func (m *ProviderMetrics) SuccessRate() float64 {
	total := m.TotalRequests.Load()
	if total == 0 {
		return 1.0
	}
	return float64(m.SuccessfulReqs.Load()) / float64(total)
}

func (m *ProviderMetrics) AvgLatencyMs() int64 {
	ok := m.SuccessfulReqs.Load()
	if ok == 0 {
		return 0
	}
	return m.TotalLatencyMs.Load() / ok
}

type Config struct {
	BaseURL                 string
	Timeout                 time.Duration
	MaxRetries              int
	RetryDelay              time.Duration
	MaxConns                int
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:                 baseURL,
		Timeout:                 5 * time.Second,
		MaxRetries:              2,
		RetryDelay:              200 * time.Millisecond,
		MaxConns:                64,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
	}
}

// InvoicerClient talks to the invoicing provider REST API over fasthttp.
type InvoicerClient struct {
	config           Config
	client           *fasthttp.Client
	metrics          ProviderMetrics
	circuitOpenUntil atomic.Int64
}

func NewInvoicerClient(config Config) (*InvoicerClient, error) {
	if config.BaseURL == "" {
		return nil, errors.New("invoicer base url is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.CircuitBreakerThreshold <= 0 {
		config.CircuitBreakerThreshold = 5
	}
	c := &InvoicerClient{
		config: config,
		client: &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
	}
	logger.Info("invoicer client initialized", "url", config.BaseURL, "timeout", config.Timeout)
	return c, nil
}

func (c *InvoicerClient) Metrics() *ProviderMetrics {
	return &c.metrics
}

func (c *InvoicerClient) IssueInvoice(ctx context.Context, t model.Transaction) (model.IssuedDocument, error) {
	req := InvoiceRequest{
		TransactionID: t.ID,
		ExternalID:    t.ExternalID,
		Amount:        t.Amount,
		Currency:      t.Currency,
		CustomerName:  deref(t.CustomerName),
		CustomerDoc:   deref(t.CustomerDoc),
	}
	return c.issue(ctx, "/api/v1/invoices", req)
}

func (c *InvoicerClient) IssueCreditNote(ctx context.Context, t model.Transaction, reason string) (model.IssuedDocument, error) {
	req := CreditNoteRequest{
		TransactionID: t.ID,
		InvoiceNumber: deref(t.InvoiceNumber),
		Amount:        t.Amount,
		Currency:      t.Currency,
		Reason:        reason,
	}
	return c.issue(ctx, "/api/v1/credit-notes", req)
}

func (c *InvoicerClient) issue(ctx context.Context, path string, payload any) (model.IssuedDocument, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return model.IssuedDocument{}, fmt.Errorf("failed to marshal request: %w", err)
	}
	res, err := c.call(ctx, fasthttp.MethodPost, path, body)
	if err != nil {
		return model.IssuedDocument{}, err
	}
	var doc DocumentResponse
	if err := json.Unmarshal(res, &doc); err != nil {
		return model.IssuedDocument{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return model.IssuedDocument{Number: doc.Number, CAE: doc.CAE, IssuedAt: doc.IssuedAt}, nil
}

func (c *InvoicerClient) FetchPDF(ctx context.Context, number string) ([]byte, error) {
	return c.call(ctx, fasthttp.MethodGet, "/api/v1/documents/"+url.PathEscape(number)+"/pdf", nil)
}

func (c *InvoicerClient) ResendInvoice(ctx context.Context, number, email string) error {
	body, _ := json.Marshal(ResendRequest{Email: email})
	_, err := c.call(ctx, fasthttp.MethodPost, "/api/v1/documents/"+url.PathEscape(number)+"/resend", body)
	return err
}

// Ping checks the provider health endpoint.
func (c *InvoicerClient) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, fasthttp.MethodGet, "/health", nil)
	return err
}

// call retries transport errors and 5xx answers. A 4xx is returned at once as ErrRejected.
func (c *InvoicerClient) call(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}
		if c.circuitOpen() {
			return nil, ErrCircuitOpen
		}

		start := time.Now()
		res, err := c.doRequest(ctx, method, path, body)
		if err == nil {
			c.metrics.RecordSuccess(time.Since(start).Milliseconds())
			return res, nil
		}
		if errors.Is(err, ErrRejected) {
			return nil, err
		}

		c.metrics.RecordFailure()
		c.checkCircuitBreaker()
		logger.Warn("invoicer request failed, retrying", "path", path, "attempt", attempt+1, "error", err)
		lastErr = err
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func (c *InvoicerClient) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	status := resp.StatusCode()
	switch {
	case status >= 500:
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", status, resp.Body())
	case status >= 400:
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrRejected, status, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())
	return result, nil
}

func (c *InvoicerClient) circuitOpen() bool {
	return time.Now().UnixNano() < c.circuitOpenUntil.Load()
}

func (c *InvoicerClient) checkCircuitBreaker() {
	fails := c.metrics.ConsecutiveFails.Load()
	if fails < int32(c.config.CircuitBreakerThreshold) {
		return
	}
	c.circuitOpenUntil.Store(time.Now().Add(c.config.CircuitBreakerTimeout).UnixNano())
	c.metrics.ConsecutiveFails.Store(0)
	logger.Warn("invoicer circuit breaker opened", "consecutive_fails", fails, "timeout", c.config.CircuitBreakerTimeout)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
