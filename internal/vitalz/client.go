// Package vitalz is a thin client for the Vitalz REST API. Every endpoint is
// a GET with query parameters that answers with a {"data": [...]} envelope.
package vitalz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/domain"
)

const (
	EndpointUserList   = "/getUserList"
	EndpointSleep      = "/getUserSleepData"
	EndpointScore      = "/getUserScore"
	EndpointStatistics = "/getUserStatics"

	// DateLayout is the format of the Date query parameter
	DateLayout = "2006-01-02"

	maxErrorBody = 512
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Client talks to one Vitalz base URL
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client for baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListUsers returns every user known to the backend
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	return get[domain.User](ctx, c, EndpointUserList, nil)
}

// Sleep returns the sleep sessions of one user
func (c *Client) Sleep(ctx context.Context, email, deviceUserID string) ([]domain.SleepRecord, error) {
	return get[domain.SleepRecord](ctx, c, EndpointSleep, userQuery(email, deviceUserID))
}

// Score returns the score entries of one user
func (c *Client) Score(ctx context.Context, email, deviceUserID string) ([]domain.ScoreRecord, error) {
	return get[domain.ScoreRecord](ctx, c, EndpointScore, userQuery(email, deviceUserID))
}

// Statistics returns the heart-rate samples of one user for a single date
func (c *Client) Statistics(ctx context.Context, email, deviceUserID string, date time.Time) ([]domain.StatisticsSample, error) {
	q := userQuery(email, deviceUserID)
	q.Set("Date", date.Format(DateLayout))
	return get[domain.StatisticsSample](ctx, c, EndpointStatistics, q)
}

func userQuery(email, deviceUserID string) url.Values {
	q := url.Values{}
	q.Set("LoginEmail", email)
	q.Set("DeviceUserID", deviceUserID)
	return q
}

func get[T any](ctx context.Context, c *Client, endpoint string, query url.Values) ([]T, error) {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var envelope domain.Envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", endpoint, err)
	}
	if envelope.Data == nil {
		return []T{}, nil
	}
	return envelope.Data, nil
}
