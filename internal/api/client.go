// Package api implements the HTTP/JSON client for the remote finance
// service. The service owns persistence and computes all analytics; this
// client only moves entities and snapshots across the wire.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"kharcha/internal/core"
)

// Client talks to the finance service rooted at BaseURL. An empty BaseURL
// targets relative paths, which only works behind a proxy that fills in the
// host; it is allowed so the zero configuration still composes URLs.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// Error is a non-2xx response from the service.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("service returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("service returned %d", e.StatusCode)
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{},
	}
}

// NewClientWithHTTP creates a client using the given http.Client, letting
// callers control transport and timeouts.
func NewClientWithHTTP(baseURL string, httpc *http.Client) *Client {
	return &Client{baseURL: baseURL, httpc: httpc}
}

// Categories

func (c *Client) Categories(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	if err := c.get(ctx, "/api/categories", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, req CategoryCreate) (core.Category, error) {
	var out core.Category
	if err := c.send(ctx, http.MethodPost, "/api/categories", req, &out); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return out, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id string, req CategoryUpdate) (core.Category, error) {
	var out core.Category
	if err := c.send(ctx, http.MethodPut, "/api/categories/"+url.PathEscape(id), req, &out); err != nil {
		return core.Category{}, fmt.Errorf("update category %s: %w", id, err)
	}
	return out, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	if err := c.send(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

// Transactions

func (c *Client) Transactions(ctx context.Context, filter TransactionFilter) ([]core.Transaction, error) {
	q := url.Values{}
	if filter.Type != "" {
		q.Set("type", string(filter.Type))
	}
	if filter.CategoryID != "" {
		q.Set("category_id", filter.CategoryID)
	}
	if !filter.StartDate.IsZero() {
		q.Set("start_date", filter.StartDate.Format(time.RFC3339))
	}
	if !filter.EndDate.IsZero() {
		q.Set("end_date", filter.EndDate.Format(time.RFC3339))
	}

	var out []core.Transaction
	if err := c.get(ctx, "/api/transactions", q, &out); err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	return out, nil
}

func (c *Client) CreateTransaction(ctx context.Context, req TransactionCreate) (core.Transaction, error) {
	var out core.Transaction
	if err := c.send(ctx, http.MethodPost, "/api/transactions", req, &out); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return out, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, req TransactionUpdate) (core.Transaction, error) {
	var out core.Transaction
	if err := c.send(ctx, http.MethodPut, "/api/transactions/"+url.PathEscape(id), req, &out); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	return out, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if err := c.send(ctx, http.MethodDelete, "/api/transactions/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

// Reminders

func (c *Client) Reminders(ctx context.Context) ([]core.Reminder, error) {
	var out []core.Reminder
	if err := c.get(ctx, "/api/reminders", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch reminders: %w", err)
	}
	return out, nil
}

func (c *Client) CreateReminder(ctx context.Context, req ReminderCreate) (core.Reminder, error) {
	var out core.Reminder
	if err := c.send(ctx, http.MethodPost, "/api/reminders", req, &out); err != nil {
		return core.Reminder{}, fmt.Errorf("create reminder: %w", err)
	}
	return out, nil
}

func (c *Client) UpdateReminder(ctx context.Context, id string, req ReminderUpdate) (core.Reminder, error) {
	var out core.Reminder
	if err := c.send(ctx, http.MethodPut, "/api/reminders/"+url.PathEscape(id), req, &out); err != nil {
		return core.Reminder{}, fmt.Errorf("update reminder %s: %w", id, err)
	}
	return out, nil
}

func (c *Client) DeleteReminder(ctx context.Context, id string) error {
	if err := c.send(ctx, http.MethodDelete, "/api/reminders/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete reminder %s: %w", id, err)
	}
	return nil
}

// Analytics

func (c *Client) MonthlyAnalytics(ctx context.Context, year, month int) (core.MonthlyAnalytics, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", strconv.Itoa(month))

	var out core.MonthlyAnalytics
	if err := c.get(ctx, "/api/analytics/monthly", q, &out); err != nil {
		return core.MonthlyAnalytics{}, fmt.Errorf("fetch monthly analytics: %w", err)
	}
	return out, nil
}

func (c *Client) LastSixMonths(ctx context.Context) ([]core.SixMonthPoint, error) {
	var out []core.SixMonthPoint
	if err := c.get(ctx, "/api/analytics/last-six-months", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch six month trend: %w", err)
	}
	return out, nil
}

// Export and reset

func (c *Client) ExportCSV(ctx context.Context, startDate, endDate time.Time) (ExportResult, error) {
	q := url.Values{}
	if !startDate.IsZero() {
		q.Set("start_date", startDate.Format(time.RFC3339))
	}
	if !endDate.IsZero() {
		q.Set("end_date", endDate.Format(time.RFC3339))
	}

	var out ExportResult
	if err := c.get(ctx, "/api/export/csv", q, &out); err != nil {
		return ExportResult{}, fmt.Errorf("export csv: %w", err)
	}
	return out, nil
}

func (c *Client) ResetAll(ctx context.Context) error {
	if err := c.send(ctx, http.MethodDelete, "/api/reset-all", nil, nil); err != nil {
		return fmt.Errorf("reset all data: %w", err)
	}
	return nil
}

// Plumbing

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// readErrorMessage pulls the message out of the service's error envelope,
// tolerating arbitrary or empty bodies.
func readErrorMessage(r io.Reader) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&envelope); err != nil {
		return ""
	}
	return envelope.Error.Message
}
