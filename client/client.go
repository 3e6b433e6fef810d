// Package client is the embeddable submission core for geotagged marks:
// an HTTP GeoStore over the REST API, the advisory rate limiter, the
// display jitter policy, the marker renderer and the submission
// controller that ties them together.
package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/orma-app/orma/client/internal/api"
	"github.com/orma-app/orma/internal/auth"
)

// Client talks to the marks service REST API and implements GeoStore.
type Client struct {
	baseURL string
	http    *http.Client
	token   string

	pollInterval time.Duration
}

// New constructs a Client for the given base URL and bearer token.
// Additional options can be provided via functional arguments.
func New(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		panic("baseURL cannot be empty")
	}
	if token == "" {
		panic("token cannot be empty")
	}

	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        token,
		http:         &http.Client{Timeout: 30 * time.Second},
		pollInterval: 30 * time.Second,
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			panic(err)
		}
	}

	// Wrap HTTP transport to automatically add the Authorization header.
	c.wrapTransportWithToken()

	return c
}

// NewWithDevMode constructs a Client using the shared local dev token.
// This only works against a server running with dev-mode auth.
func NewWithDevMode(baseURL string, opts ...Option) *Client {
	return New(baseURL, auth.DevToken, opts...)
}

func (c *Client) wrapTransportWithToken() {
	baseTransport := c.http.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	c.http.Transport = &tokenTransport{
		base:  baseTransport,
		token: c.token,
	}
}

// tokenTransport wraps an http.RoundTripper to add the Authorization header.
type tokenTransport struct {
	base  http.RoundTripper
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original.
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(cloned)
}

// --------------------------------------------------------------------
// GeoStore implementation - delegated to internal/api
// --------------------------------------------------------------------

// Append persists a new mark and returns its server-assigned id.
func (c *Client) Append(ctx context.Context, in MarkInput) (string, error) {
	m, err := api.CreateMark(ctx, c.http, c.baseURL, &in)
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

// QueryRecent returns the newest marks, falling back to createdAtLocal
// ordering when the createdAt-ordered query fails or returns nothing.
func (c *Client) QueryRecent(ctx context.Context, limit int) ([]*Mark, error) {
	marks, err := api.ListMarks(ctx, c.http, c.baseURL, api.ListQuery{
		Limit:   limit,
		OrderBy: OrderByCreatedAt,
	})
	if err == nil && len(marks) > 0 {
		return marks, nil
	}
	primaryErr := err

	marks, err = api.ListMarks(ctx, c.http, c.baseURL, api.ListQuery{
		Limit:   limit,
		OrderBy: OrderByCreatedAtLocal,
	})
	if err != nil {
		if primaryErr != nil {
			return nil, primaryErr
		}
		return nil, err
	}
	return marks, nil
}

// QueryByAuthorSince returns one author's marks newer than since.
func (c *Client) QueryByAuthorSince(ctx context.Context, authorID string, since time.Time, limit int) ([]*Mark, error) {
	return api.ListMarks(ctx, c.http, c.baseURL, api.ListQuery{
		AuthorID: authorID,
		Since:    &since,
		Limit:    limit,
		OrderBy:  OrderByCreatedAtLocal,
	})
}

// GetMark retrieves a single mark by id.
func (c *Client) GetMark(ctx context.Context, markID string) (*Mark, error) {
	return api.GetMark(ctx, c.http, c.baseURL, markID)
}

// ServerQuota fetches the server's advisory quota report for this token.
func (c *Client) ServerQuota(ctx context.Context) (*api.QuotaInfo, error) {
	return api.GetQuota(ctx, c.http, c.baseURL)
}
