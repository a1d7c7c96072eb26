package smartcollectsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal SmartCollect HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Account represents the API account model (partial).
type Account struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	TaxID           string    `json:"tax_id,omitempty"`
	DaysOverdue     int       `json:"days_overdue"`
	Amount          float64   `json:"amount"`
	Status          string    `json:"status"`
	Operator        string    `json:"operator,omitempty"`
	ContactAttempts int       `json:"contact_attempts"`
	Promises        []Promise `json:"promises,omitempty"`
}

// Promise represents a payment promise.
type Promise struct {
	ID        string  `json:"id"`
	AccountID string  `json:"account_id"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	Channel   string  `json:"channel,omitempty"`
	Note      string  `json:"note,omitempty"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
	PaidAt    *string `json:"paid_at,omitempty"`
}

// AuditEvent represents a log entry.
type AuditEvent struct {
	ID      string `json:"id"`
	TS      string `json:"ts"`
	Type    string `json:"type"`
	Actor   string `json:"actor"`
	Message string `json:"message"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Login exchanges credentials for a bearer token and stores it on the client.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]any{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "v0/auth/login", body, &resp); err != nil {
		return err
	}
	c.BearerToken = resp.Token
	return nil
}

// Portfolio lists all accounts.
func (c *Client) Portfolio(ctx context.Context) ([]Account, error) {
	var resp []Account
	err := c.do(ctx, http.MethodGet, "v0/portfolio", nil, &resp)
	return resp, err
}

// Seed replaces the portfolio with generated demo accounts.
func (c *Client) Seed(ctx context.Context, count int) ([]Account, error) {
	var resp []Account
	err := c.do(ctx, http.MethodPost, "v0/portfolio/seed", map[string]any{"count": count}, &resp)
	return resp, err
}

// SetStatus updates an account's workflow status.
func (c *Client) SetStatus(ctx context.Context, accountID, status string) (Account, error) {
	var resp Account
	endpoint := fmt.Sprintf("v0/accounts/%s/status", url.PathEscape(accountID))
	err := c.do(ctx, http.MethodPatch, endpoint, map[string]any{"status": status}, &resp)
	return resp, err
}

// RegisterContact records an outreach contact on an account.
func (c *Client) RegisterContact(ctx context.Context, accountID, channel, note string) (Account, error) {
	var resp Account
	endpoint := fmt.Sprintf("v0/accounts/%s/contacts", url.PathEscape(accountID))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"channel": channel, "note": note}, &resp)
	return resp, err
}

// CreatePromise attaches a payment promise to an account.
func (c *Client) CreatePromise(ctx context.Context, accountID string, amount float64, date string) (Promise, error) {
	var resp Promise
	endpoint := fmt.Sprintf("v0/accounts/%s/promises", url.PathEscape(accountID))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"amount": amount, "date": date}, &resp)
	return resp, err
}

// PayPromise marks a promise as paid.
func (c *Client) PayPromise(ctx context.Context, promiseID string) (Promise, error) {
	var resp Promise
	endpoint := fmt.Sprintf("v0/promises/%s/pay", url.PathEscape(promiseID))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// CancelPromise cancels an open promise.
func (c *Client) CancelPromise(ctx context.Context, promiseID string) (Promise, error) {
	var resp Promise
	endpoint := fmt.Sprintf("v0/promises/%s/cancel", url.PathEscape(promiseID))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// Assignments runs the scoring and distribution pipeline.
func (c *Client) Assignments(ctx context.Context) (map[string]any, error) {
	var resp map[string]any
	err := c.do(ctx, http.MethodGet, "v0/assignments", nil, &resp)
	return resp, err
}

// Audit returns recent audit events, newest first.
func (c *Client) Audit(ctx context.Context, limit int) ([]AuditEvent, error) {
	endpoint := "v0/audit"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []AuditEvent
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
