// Package client provides an HTTP client for the trackmate REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/evcraddock/trackmate/internal/dashboard"
	"github.com/evcraddock/trackmate/internal/expense"
	"github.com/evcraddock/trackmate/internal/visit"
)

// Client is an HTTP client for the trackmate API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    uint64
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retries:    3,
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// VisitQuery selects the dashboard view to fetch.
type VisitQuery struct {
	Category visit.Category
	Cities   []string
	From, To string // YYYY-MM-DD
	Months   []int
	Page     int
	PerPage  int
}

func (q VisitQuery) values() url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", string(q.Category))
	}
	for _, c := range q.Cities {
		v.Add("city", c)
	}
	if q.From != "" {
		v.Set("from", q.From)
	}
	if q.To != "" {
		v.Set("to", q.To)
	}
	for _, m := range q.Months {
		v.Add("month", strconv.Itoa(m))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	return v
}

// VisitsResponse is the response from GET /api/visits.
type VisitsResponse struct {
	dashboard.Result
	Category visit.Category `json:"category"`
	Cities   []string       `json:"cities"`
	Recent   []visit.Visit  `json:"recent"`
}

// VisitInput is the body of POST /api/visits. The server assigns the code.
type VisitInput struct {
	Category           visit.Category `json:"category"`
	Organization       string         `json:"organization"`
	City               string         `json:"city"`
	State              string         `json:"state,omitempty"`
	VisitPhase         string         `json:"visitPhase"`
	DateTime           string         `json:"dateTime,omitempty"`
	ContactName        string         `json:"contactName,omitempty"`
	ContactDesignation string         `json:"contactDesignation,omitempty"`
	ContactNumber      string         `json:"contactNumber,omitempty"`
	ContactEmail       string         `json:"contactEmail,omitempty"`
	Representative     string         `json:"representative,omitempty"`
	VisitPurpose       string         `json:"visitPurpose,omitempty"`
	Courses            string         `json:"courses,omitempty"`
	StudentCount       visit.Amount   `json:"studentCount"`
	TotalContractValue visit.Amount   `json:"totalContractValue"`
	PerStudentRate     visit.Amount   `json:"perStudentRate"`
}

// ExpensesResponse is the response from GET /api/expenses.
type ExpensesResponse struct {
	Expenses   []expense.Expense `json:"expenses"`
	Summary    expense.Summary   `json:"summary"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}

// ListVisits returns one page of the filtered dashboard view.
func (c *Client) ListVisits(ctx context.Context, q VisitQuery) (*VisitsResponse, error) {
	var resp VisitsResponse
	if err := c.get(ctx, withQuery("/api/visits", q.values()), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetVisit returns a single visit.
func (c *Client) GetVisit(ctx context.Context, id string) (*visit.Visit, error) {
	var v visit.Visit
	if err := c.get(ctx, "/api/visits/"+url.PathEscape(id), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// AddVisit records a visit; the returned record carries its new code.
func (c *Client) AddVisit(ctx context.Context, in VisitInput) (*visit.Visit, error) {
	var v visit.Visit
	if err := c.post(ctx, "/api/visits", in, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ExportVisits copies the CSV export of the filtered view to w.
func (c *Client) ExportVisits(ctx context.Context, q VisitQuery, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+withQuery("/api/visits/export", q.values()), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return responseError(resp.StatusCode, body)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// NextCode previews the next visit code of a category.
func (c *Client) NextCode(ctx context.Context, category visit.Category) (string, error) {
	var resp struct {
		VisitCode string `json:"visitCode"`
	}
	v := url.Values{}
	if category != "" {
		v.Set("category", string(category))
	}
	if err := c.get(ctx, withQuery("/api/codes/next", v), &resp); err != nil {
		return "", err
	}
	return resp.VisitCode, nil
}

// ListExpenses returns one page of expenses with totals.
func (c *Client) ListExpenses(ctx context.Context, category visit.Category, page, perPage int) (*ExpensesResponse, error) {
	v := url.Values{}
	if category != "" {
		v.Set("category", string(category))
	}
	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		v.Set("per_page", strconv.Itoa(perPage))
	}
	var resp ExpensesResponse
	if err := c.get(ctx, withQuery("/api/expenses", v), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddExpense records a trip, split across its organizations.
func (c *Client) AddExpense(ctx context.Context, in expense.Input) ([]expense.Expense, error) {
	var out []expense.Expense
	if err := c.post(ctx, "/api/expenses", in, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

// get performs a GET request and decodes the response. A busy server (503)
// is retried with exponential backoff.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		err = c.do(req, result)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx))
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// do executes an HTTP request and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return responseError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

func responseError(status int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &APIError{Status: status, Message: errResp.Error}
	}
	return &APIError{Status: status, Message: fmt.Sprintf("server returned %d: %s", status, strings.TrimSpace(string(body)))}
}
