// Package middleware provides Echo middleware for cross-cutting concerns.
package middleware

import (
	"github.com/labstack/echo/v4"

	"alignment-feed-bff/internal/auth"
)

// AuthContext installs a per-request auth holder into the request
// context. Handlers resolve through the holder so that every consumer in
// one request observes a single resolution and at most one refresh
// attempt is made per refresh token per request.
func AuthContext(resolver *auth.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ra := auth.NewRequestAuth(resolver)
			req := c.Request()
			c.SetRequest(req.WithContext(auth.WithRequestAuth(req.Context(), ra)))
			return next(c)
		}
	}
}

// Resolve returns the memoized auth resolution for the current request
// and commits any pending session cookie to the response. It must be
// called before the response body is written.
func Resolve(c echo.Context) *auth.Resolution {
	req := c.Request()
	ra, ok := auth.FromContext(req.Context())
	if !ok {
		// Route registered without the AuthContext middleware; treat as
		// anonymous rather than failing the request.
		return &auth.Resolution{}
	}
	res := ra.Resolve(req.Context(), req)
	if res.SetCookie != nil && c.Response().Header().Get(echo.HeaderSetCookie) == "" {
		c.SetCookie(res.SetCookie)
	}
	return res
}
