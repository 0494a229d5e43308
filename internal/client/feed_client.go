// Package client provides the HTTP client for the Alignment Feed API.
package client

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"alignment-feed-bff/internal/resilience"
)

// tokenPrefix is prepended to access tokens; the upstream API expects
// bearer credentials in the form "auth0|<token>".
const tokenPrefix = "auth0|"

// AuthorizationHeader builds the Authorization value for an access token.
func AuthorizationHeader(accessToken string) string {
	return "Bearer " + tokenPrefix + accessToken
}

// FeedClient forwards requests to the Alignment Feed API, injecting the
// bearer credential server-side so the browser never holds it.
type FeedClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// New creates a feed client. breaker may be nil to disable circuit
// breaking (tests).
func New(baseURL string, timeout time.Duration, breaker *resilience.Breaker) *FeedClient {
	return &FeedClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
	}
}

// Do issues a request to the upstream API. rawQuery is appended verbatim
// so filter values (ISO-8601 dates included) pass through byte-exact.
// When accessToken is empty the request goes out anonymous; public
// endpoints accept that, protected ones answer 401 and callers fall back
// to the unauthenticated path without retrying.
func (c *FeedClient) Do(ctx context.Context, method, path, rawQuery string, body io.Reader, contentType, accessToken string) (*http.Response, error) {
	u := c.baseURL + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", AuthorizationHeader(accessToken))
	}

	if c.breaker == nil {
		return c.httpClient.Do(req)
	}
	if !c.breaker.Allow() {
		return nil, resilience.ErrCircuitOpen
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}
	// 5xx counts against the breaker; 4xx is an upstream verdict, not an
	// availability failure.
	if resp.StatusCode >= http.StatusInternalServerError {
		c.breaker.RecordFailure()
	} else {
		c.breaker.RecordSuccess()
	}
	return resp, nil
}

// Get is shorthand for authenticated or anonymous GETs.
func (c *FeedClient) Get(ctx context.Context, path, rawQuery, accessToken string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, path, rawQuery, nil, "", accessToken)
}
