package auth

import (
	"context"
	"net/http"
	"sync"
)

type contextKey struct{}

// RequestAuth memoizes one resolution per inbound request. The browser
// fans a single navigation out into several parallel loader calls, each
// of which resolves auth independently; without the memo they would race
// to spend a single-use refresh token. The first caller computes, later
// callers block on the same result.
type RequestAuth struct {
	resolver *Resolver

	once sync.Once
	res  *Resolution
}

// NewRequestAuth creates the per-request holder.
func NewRequestAuth(resolver *Resolver) *RequestAuth {
	return &RequestAuth{resolver: resolver}
}

// Resolve returns the request's auth resolution, computing it on first use.
func (ra *RequestAuth) Resolve(ctx context.Context, req *http.Request) *Resolution {
	ra.once.Do(func() {
		ra.res = ra.resolver.Resolve(ctx, req)
	})
	return ra.res
}

// WithRequestAuth attaches the holder to a request context.
func WithRequestAuth(ctx context.Context, ra *RequestAuth) context.Context {
	return context.WithValue(ctx, contextKey{}, ra)
}

// FromContext retrieves the holder installed by the middleware.
func FromContext(ctx context.Context) (*RequestAuth, bool) {
	ra, ok := ctx.Value(contextKey{}).(*RequestAuth)
	return ra, ok
}
