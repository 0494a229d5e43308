package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alignment-feed-bff/internal/idp"
	"alignment-feed-bff/internal/session"
)

func newFlowHandler(t *testing.T) (*AuthFlowHandler, *authEnv) {
	t.Helper()
	env := newAuthEnv(t)
	idpClient := idp.New(idp.Config{
		Domain:       "tenant.auth0.example",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Audience:     "https://feed.example/api",
		RedirectURL:  "https://bff.example/auth/callback",
	}, time.Second, 24*time.Hour)
	return NewAuthFlowHandler(idpClient, env.store, false), env
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthFlowLogin(t *testing.T) {
	t.Run("redirects to the hosted login with a state cookie", func(t *testing.T) {
		h, _ := newFlowHandler(t)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
		rec := httptest.NewRecorder()

		require.NoError(t, h.Login(e.NewContext(req, rec)))

		assert.Equal(t, http.StatusFound, rec.Code)

		loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
		require.NoError(t, err)
		assert.Equal(t, "tenant.auth0.example", loc.Host)
		assert.Equal(t, "/authorize", loc.Path)

		state := cookieByName(rec.Result().Cookies(), stateCookieName)
		require.NotNil(t, state)
		assert.NotEmpty(t, state.Value)
		assert.True(t, state.HttpOnly)
		assert.Equal(t, state.Value, loc.Query().Get("state"),
			"cookie and redirect must carry the same state")
	})

	t.Run("passes screen_hint through and keeps a same-origin returnTo", func(t *testing.T) {
		h, _ := newFlowHandler(t)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/auth/login?screen_hint=signup&returnTo=/settings", nil)
		rec := httptest.NewRecorder()

		require.NoError(t, h.Login(e.NewContext(req, rec)))

		loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
		require.NoError(t, err)
		assert.Equal(t, "signup", loc.Query().Get("screen_hint"))

		ret := cookieByName(rec.Result().Cookies(), returnCookieName)
		require.NotNil(t, ret)
		assert.Equal(t, "/settings", ret.Value)
	})

	t.Run("discards an off-origin returnTo", func(t *testing.T) {
		h, _ := newFlowHandler(t)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/auth/login?returnTo=https://evil.example/", nil)
		rec := httptest.NewRecorder()

		require.NoError(t, h.Login(e.NewContext(req, rec)))

		ret := cookieByName(rec.Result().Cookies(), returnCookieName)
		require.NotNil(t, ret)
		assert.Equal(t, "/", ret.Value)
	})
}

func TestAuthFlowCallback(t *testing.T) {
	t.Run("rejects a state mismatch without writing a session", func(t *testing.T) {
		h, _ := newFlowHandler(t)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=forged&code=abc", nil)
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "expected"})
		rec := httptest.NewRecorder()

		require.NoError(t, h.Callback(e.NewContext(req, rec)))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
		assert.Nil(t, cookieByName(rec.Result().Cookies(), session.CookieName))
	})

	t.Run("redirects home when the provider sent no code", func(t *testing.T) {
		h, _ := newFlowHandler(t)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=s&error=access_denied", nil)
		req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "s"})
		rec := httptest.NewRecorder()

		require.NoError(t, h.Callback(e.NewContext(req, rec)))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
		assert.Nil(t, cookieByName(rec.Result().Cookies(), session.CookieName))
	})
}

func TestAuthFlowLogout(t *testing.T) {
	t.Run("clears the session and forwards to the provider logout", func(t *testing.T) {
		h, _ := newFlowHandler(t)

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "https://bff.example/auth/logout", nil)
		rec := httptest.NewRecorder()

		require.NoError(t, h.Logout(e.NewContext(req, rec)))

		assert.Equal(t, http.StatusFound, rec.Code)

		loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
		require.NoError(t, err)
		assert.Equal(t, "tenant.auth0.example", loc.Host)
		assert.Equal(t, "/v2/logout", loc.Path)
		assert.Equal(t, "https://bff.example", loc.Query().Get("returnTo"))

		cleared := cookieByName(rec.Result().Cookies(), session.CookieName)
		require.NotNil(t, cleared)
		assert.Equal(t, -1, cleared.MaxAge)
	})

	t.Run("GET logout just goes home", func(t *testing.T) {
		h, _ := newFlowHandler(t)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
		rec := httptest.NewRecorder()

		require.NoError(t, h.LogoutRedirect(e.NewContext(req, rec)))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
		assert.Empty(t, rec.Result().Cookies())
	})
}
