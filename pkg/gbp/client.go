// Package gbp is a thin client for the Google Business Profile REST APIs used by the review desk.
package gbp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	locationsPageSize = 100
	reviewsPageSize   = 50
	locationReadMask  = "name,title,storefrontAddress"
	maxErrorBody      = 64 << 10
)

// Endpoints are the API base URLs. Tests point them at an httptest server.
type Endpoints struct {
	AccountAPI      string
	BusinessInfoAPI string
	ReviewsAPI      string
	UserInfo        string
}

// Client issues authorized calls. The HTTP client is expected to carry OAuth credentials.
type Client struct {
	http      *http.Client
	endpoints Endpoints
}

func New(httpClient *http.Client, endpoints Endpoints) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, endpoints: endpoints}
}

// APIError is any non-2xx answer from Google.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("google api %d %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("google api %d: %s", e.StatusCode, e.Message)
}

// UserInfo returns the email of the authenticated Google user.
func (c *Client) UserInfo(ctx context.Context) (*UserInfo, error) {
	var out UserInfo
	if err := c.do(ctx, http.MethodGet, c.endpoints.UserInfo, nil, &out); err != nil {
		return nil, err
	}
	if out.Email == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "userinfo response has no email"}
	}
	return &out, nil
}

// ListAccounts returns the Business Profile accounts visible to the credentials.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var out accountsResponse
	if err := c.do(ctx, http.MethodGet, join(c.endpoints.AccountAPI, "accounts"), nil, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

// ListLocations returns one page of locations under account ("accounts/123").
func (c *Client) ListLocations(ctx context.Context, account, pageToken string) (*LocationsPage, error) {
	q := url.Values{}
	q.Set("pageSize", fmt.Sprint(locationsPageSize))
	q.Set("readMask", locationReadMask)
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var out LocationsPage
	endpoint := join(c.endpoints.BusinessInfoAPI, account, "locations") + "?" + q.Encode()
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListReviews returns one page of reviews for locationPath ("accounts/1/locations/2").
func (c *Client) ListReviews(ctx context.Context, locationPath, pageToken string) (*ReviewsPage, error) {
	q := url.Values{}
	q.Set("pageSize", fmt.Sprint(reviewsPageSize))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var out ReviewsPage
	endpoint := join(c.endpoints.ReviewsAPI, locationPath, "reviews") + "?" + q.Encode()
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateReply creates or replaces the owner reply on reviewPath. Google treats repeated PUTs as idempotent.
func (c *Client) UpdateReply(ctx context.Context, reviewPath, comment string) (*ReviewReply, error) {
	var out ReviewReply
	body := ReviewReply{Comment: comment}
	if err := c.do(ctx, http.MethodPut, join(c.endpoints.ReviewsAPI, reviewPath, "reply"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		apiErr.Status = envelope.Error.Status
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func join(base string, parts ...string) string {
	out := strings.TrimRight(base, "/")
	for _, p := range parts {
		out += "/" + strings.Trim(p, "/")
	}
	return out
}
