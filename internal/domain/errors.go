package domain

import "errors"

var (
	// ErrRefreshFailed marks a refresh-token exchange the provider
	// rejected. The session holding that token is dead.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrUpstreamUnavailable marks a feed API call that failed for
	// availability reasons rather than an upstream verdict.
	ErrUpstreamUnavailable = errors.New("alignment feed API unavailable")

	// ErrUpstreamUnauthorized marks credentials the feed API rejected.
	ErrUpstreamUnauthorized = errors.New("alignment feed API rejected credentials")
)
