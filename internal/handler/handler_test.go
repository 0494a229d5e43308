package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"alignment-feed-bff/internal/auth"
	"alignment-feed-bff/internal/client"
	"alignment-feed-bff/internal/domain"
	"alignment-feed-bff/internal/idp"
	"alignment-feed-bff/internal/session"
)

// noRefresh is a Refresher for tests whose sessions are far from expiry.
type noRefresh struct{}

func (noRefresh) Refresh(ctx context.Context, refreshToken string) (*idp.TokenSet, error) {
	return nil, domain.ErrRefreshFailed
}

// authEnv bundles the pieces handler tests need to fake a logged-in or
// anonymous browser request.
type authEnv struct {
	store    *session.Store
	resolver *auth.Resolver
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	store, err := session.NewStore("handler-test-secret", time.Hour, false)
	require.NoError(t, err)
	return &authEnv{
		store:    store,
		resolver: auth.NewResolver(store, noRefresh{}, 0),
	}
}

// newContext builds an Echo context with the auth holder installed, the
// way the AuthContext middleware would.
func (env *authEnv) newContext(t *testing.T, e *echo.Echo, rec *httptest.ResponseRecorder, r *http.Request) echo.Context {
	t.Helper()
	ra := auth.NewRequestAuth(env.resolver)
	r = r.WithContext(auth.WithRequestAuth(r.Context(), ra))
	return e.NewContext(r, rec)
}

// login attaches a valid session cookie to the request.
func (env *authEnv) login(t *testing.T, r *http.Request, accessToken string) {
	t.Helper()
	cookie, err := env.store.Write(&domain.Session{
		UserID:      "auth0|user1",
		Email:       "u@example.com",
		AccessToken: accessToken,
		ExpiresAt:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	r.AddCookie(cookie)
}

func newFeedClient(srvURL string) *client.FeedClient {
	return client.New(srvURL, time.Second, nil)
}
