package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/gfconnector/billing-console/internal/query"
	"github.com/gfconnector/billing-console/pkg/logger"
	"github.com/valyala/fasthttp"
)

// HTTPClient calls the billing REST API with the stored bearer token.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	tokens  TokenStore
	client  *fasthttp.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration, tokens TokenStore) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		timeout: timeout,
		tokens:  tokens,
		client: &fasthttp.Client{
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
	}
}

// Close releases idle connections and the token store when it holds a file.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	if closer, ok := c.tokens.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func (c *HTTPClient) Health(ctx context.Context) error {
	_, err := c.do(ctx, fasthttp.MethodGet, "/api/health", nil)
	return err
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	body, _ := json.Marshal(model.LoginRequest{Username: username, Password: password})
	var tokens model.TokenPair
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/auth/login", body, &tokens); err != nil {
		return err
	}
	return c.tokens.SetToken(tokens.AccessToken)
}

func (c *HTTPClient) Logout() error {
	return c.tokens.Clear()
}

func (c *HTTPClient) ListTransactions(ctx context.Context, p query.Params) (model.Page, error) {
	var page model.Page
	err := c.doJSON(ctx, fasthttp.MethodGet, "/api/transactions/list-native?"+p.Values().Encode(), nil, &page)
	return page, err
}

func (c *HTTPClient) PendingTransactions(ctx context.Context, page, size int) (model.Page, error) {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("size", strconv.Itoa(size))
	var res model.Page
	err := c.doJSON(ctx, fasthttp.MethodGet, "/api/transactions/pending-billing-confirmation?"+v.Encode(), nil, &res)
	return res, err
}

func (c *HTTPClient) GetTransaction(ctx context.Context, id string) (model.Transaction, error) {
	var t model.Transaction
	err := c.doJSON(ctx, fasthttp.MethodGet, "/api/transactions/"+url.PathEscape(id), nil, &t)
	return t, err
}

func (c *HTTPClient) InitializeBillingStatus(ctx context.Context) (model.InitializeResult, error) {
	var res model.InitializeResult
	err := c.doJSON(ctx, fasthttp.MethodPost, "/api/transactions/initialize-billing-status", nil, &res)
	return res, err
}

func (c *HTTPClient) ConfirmBilling(ctx context.Context, id string) (model.ActionResult, error) {
	var res model.ActionResult
	err := c.doJSON(ctx, fasthttp.MethodPost, "/api/transactions/"+url.PathEscape(id)+"/confirm-billing", nil, &res)
	return res, err
}

func (c *HTTPClient) Refund(ctx context.Context, id, reason string) (model.ActionResult, error) {
	path := "/api/credit-notes/refund/" + url.PathEscape(id)
	if reason != "" {
		path += "?refundReason=" + url.QueryEscape(reason)
	}
	var res model.ActionResult
	err := c.doJSON(ctx, fasthttp.MethodPost, path, nil, &res)
	return res, err
}

func (c *HTTPClient) InvoicePDF(ctx context.Context, id string) ([]byte, error) {
	return c.do(ctx, fasthttp.MethodGet, "/api/invoices/pdf/"+url.PathEscape(id), nil)
}

func (c *HTTPClient) CreditNotePDF(ctx context.Context, id string) ([]byte, error) {
	return c.do(ctx, fasthttp.MethodGet, "/api/credit-notes/pdf/"+url.PathEscape(id), nil)
}

func (c *HTTPClient) ResendInvoice(ctx context.Context, id string) error {
	_, err := c.do(ctx, fasthttp.MethodPost, "/api/invoices/resend/"+url.PathEscape(id), nil)
	return err
}

func (c *HTTPClient) ActiveSettings(ctx context.Context) (model.BillingSettings, error) {
	var s model.BillingSettings
	err := c.doJSON(ctx, fasthttp.MethodGet, "/api/billing-settings/active", nil, &s)
	return s, err
}

func (c *HTTPClient) InitDefaultSettings(ctx context.Context) (model.BillingSettings, error) {
	var s model.BillingSettings
	err := c.doJSON(ctx, fasthttp.MethodPost, "/api/billing-settings/init-default", nil, &s)
	return s, err
}

func (c *HTTPClient) DashboardStats(ctx context.Context) (model.DashboardStats, error) {
	var s model.DashboardStats
	err := c.doJSON(ctx, fasthttp.MethodGet, "/api/dashboard/stats", nil, &s)
	return s, err
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body []byte, dst any) error {
	res, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(res, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// do sends one request. A 401 drops the stored token so the next command asks for a login.
func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if token, _ := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	status := resp.StatusCode()
	if status == fasthttp.StatusUnauthorized {
		if err := c.tokens.Clear(); err != nil {
			logger.Warn("failed to clear session token", "error", err)
		}
		return nil, ErrUnauthorized
	}
	if status < 200 || status >= 300 {
		return nil, &HTTPError{Status: status, Body: errorMessage(resp.Body())}
	}

	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}

// errorMessage unwraps the API's {"error": msg} body when present.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return string(body)
}
