package budgetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"budgetui/internal/core"
	applog "budgetui/internal/log"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// Client talks to the budgeting API over HTTP/JSON.
type Client struct {
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	observer CallObserver
	logger   *applog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default instrumented HTTP client. hc is not
// modified; a timeout is applied to a copy. NewClient rejects nil.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every call, including reading the response. It applies
// whatever order it is given in relative to WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithObserver(o CallObserver) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

func WithLogger(l *applog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.WithComponent(applog.ComponentAPI)
		}
	}
}

// NewClient returns a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:  strings.TrimRight(u.String(), "/"),
		http:     &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		observer: noopObserver{},
		logger:   applog.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		return nil, errors.New("http client is nil")
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// SaveBudget replaces the limits of month. The body is the bare
// category→limit object.
func (c *Client) SaveBudget(ctx context.Context, month string, limits core.Limits) (core.Result, error) {
	if limits == nil {
		limits = core.Limits{}
	}

	var res core.Result
	err := c.write(ctx, EndpointSaveBudget, "/api/budgets/"+url.PathEscape(month), limits, &res)
	return res, err
}

// GetBudget returns the limits stored for month. Numbers and numeric strings
// are both accepted and rendered without trailing zeros.
func (c *Client) GetBudget(ctx context.Context, month string) (core.Limits, error) {
	var body struct {
		Limits map[string]decimal.Decimal `json:"limits"`
	}
	if err := c.read(ctx, EndpointGetBudget, "/api/budgets/"+url.PathEscape(month), nil, &body); err != nil {
		return nil, err
	}

	limits := make(core.Limits, len(body.Limits))
	for category, limit := range body.Limits {
		limits[category] = core.FormatNumber(limit)
	}
	return limits, nil
}

// AddTransaction submits one transaction.
func (c *Client) AddTransaction(ctx context.Context, tx core.NewTransaction) (core.Result, error) {
	var res core.Result
	err := c.write(ctx, EndpointAddTransaction, "/api/transactions", tx, &res)
	return res, err
}

// ListTransactions returns transactions in the order the API sends them.
func (c *Client) ListTransactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error) {
	query := url.Values{}
	if filter.Month != "" {
		query.Set("month", filter.Month)
	}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}

	var body struct {
		Transactions []core.Transaction `json:"transactions"`
	}
	if err := c.read(ctx, EndpointListTransactions, "/api/transactions", query, &body); err != nil {
		return nil, err
	}
	return body.Transactions, nil
}

// GetReport returns the monthly report for month.
func (c *Client) GetReport(ctx context.Context, month string) (core.Report, error) {
	var report core.Report
	err := c.read(ctx, EndpointGetReport, "/api/reports/"+url.PathEscape(month), nil, &report)
	return report, err
}

// write POSTs payload and decodes the acknowledgement whatever the status:
// a 4xx with {"error": ...} is an application answer, not a failure.
func (c *Client) write(ctx context.Context, endpoint, path string, payload any, res *core.Result) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	start := time.Now()
	status, raw, err := c.do(ctx, http.MethodPost, path, nil, buf)
	if err != nil {
		c.finish(ctx, endpoint, OutcomeTransport, status, start, err)
		return err
	}
	if err := json.Unmarshal(raw, res); err != nil {
		err = fmt.Errorf("%w: decode %s response (status %d): %v", ErrTransport, endpoint, status, err)
		c.finish(ctx, endpoint, OutcomeDecode, status, start, err)
		return err
	}

	// Some servers signal failure with an error field and no ok flag.
	if status >= 400 || res.Error != "" {
		res.OK = false
	}
	outcome := OutcomeOK
	if !res.OK {
		outcome = OutcomeRejected
	}
	c.finish(ctx, endpoint, outcome, status, start, nil)
	return nil
}

// read GETs path and decodes a 2xx body into out. Error statuses become *StatusError.
func (c *Client) read(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	start := time.Now()
	status, raw, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		c.finish(ctx, endpoint, OutcomeTransport, status, start, err)
		return err
	}

	if status >= 400 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &body)
		serr := &StatusError{StatusCode: status, Message: body.Error}
		c.finish(ctx, endpoint, OutcomeRejected, status, start, serr)
		return serr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		err = fmt.Errorf("%w: decode %s response: %v", ErrTransport, endpoint, err)
		c.finish(ctx, endpoint, OutcomeDecode, status, start, err)
		return err
	}
	c.finish(ctx, endpoint, OutcomeOK, status, start, nil)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) (int, []byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read %s %s: %w", ErrTransport, method, path, err)
	}
	return resp.StatusCode, raw, nil
}

func (c *Client) finish(ctx context.Context, endpoint, outcome string, status int, start time.Time, err error) {
	elapsed := time.Since(start)
	c.observer.ObserveAPICall(endpoint, outcome, elapsed)

	args := []any{
		applog.FieldEndpoint, endpoint,
		applog.FieldStatusCode, status,
		applog.FieldDuration, elapsed.Milliseconds(),
		"outcome", outcome,
	}
	if err == nil {
		c.logger.DebugContext(ctx, "Budget API call completed", args...)
		return
	}

	errorType := applog.ErrorTypeApplication
	if errors.Is(err, ErrTransport) {
		errorType = applog.ErrorTypeNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			errorType = applog.ErrorTypeTimeout
		}
	}
	args = append(args, applog.FieldError, err.Error(), applog.FieldErrorType, errorType)
	c.logger.WarnContext(ctx, "Budget API call failed", args...)
}
