package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"alignment-feed-bff/internal/domain"
	"alignment-feed-bff/internal/idp"
	"alignment-feed-bff/internal/session"
)

const (
	stateCookieName  = "__auth_state"
	returnCookieName = "__auth_return"
	stateCookieTTL   = 10 * time.Minute
)

// AuthFlowHandler drives the identity-provider redirect flow:
// /auth/login sends the browser to the hosted login page, /auth/callback
// exchanges the returned code for tokens and writes the session, and
// /auth/logout clears the session and forwards to the provider logout.
type AuthFlowHandler struct {
	idp    *idp.Client
	store  *session.Store
	secure bool
}

// NewAuthFlowHandler creates the auth flow handler.
func NewAuthFlowHandler(idpClient *idp.Client, store *session.Store, secure bool) *AuthFlowHandler {
	return &AuthFlowHandler{idp: idpClient, store: store, secure: secure}
}

// Login handles GET /auth/login. Supports screen_hint=signup and a
// same-origin returnTo path.
func (h *AuthFlowHandler) Login(c echo.Context) error {
	state := uuid.NewString()

	returnTo := c.QueryParam("returnTo")
	if !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		returnTo = "/"
	}

	c.SetCookie(h.flowCookie(stateCookieName, state, int(stateCookieTTL.Seconds())))
	c.SetCookie(h.flowCookie(returnCookieName, returnTo, int(stateCookieTTL.Seconds())))

	return c.Redirect(http.StatusFound, h.idp.AuthCodeURL(state, c.QueryParam("screen_hint")))
}

// Callback handles GET /auth/callback. Any failure redirects home
// without a session rather than surfacing an error page.
func (h *AuthFlowHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	stateCookie, err := c.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != c.QueryParam("state") {
		slog.WarnContext(ctx, "auth callback state mismatch")
		return c.Redirect(http.StatusFound, "/")
	}

	code := c.QueryParam("code")
	if code == "" {
		slog.WarnContext(ctx, "auth callback missing authorization code",
			"provider_error", c.QueryParam("error"))
		return c.Redirect(http.StatusFound, "/")
	}

	set, err := h.idp.Exchange(ctx, code)
	if err != nil {
		slog.ErrorContext(ctx, "authorization code exchange failed", "error", err)
		return c.Redirect(http.StatusFound, "/")
	}

	userID, email, err := h.idp.Identity(ctx, set)
	if err != nil {
		slog.WarnContext(ctx, "could not resolve identity claims", "error", err)
		userID = "unknown"
	}

	cookie, err := h.store.Write(&domain.Session{
		UserID:       userID,
		Email:        email,
		AccessToken:  set.AccessToken,
		RefreshToken: set.RefreshToken,
		ExpiresAt:    set.ExpiresAt,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to seal session after login", "error", err)
		return c.Redirect(http.StatusFound, "/")
	}
	c.SetCookie(cookie)

	returnTo := "/"
	if rc, err := c.Cookie(returnCookieName); err == nil && strings.HasPrefix(rc.Value, "/") {
		returnTo = rc.Value
	}
	c.SetCookie(h.flowCookie(stateCookieName, "", -1))
	c.SetCookie(h.flowCookie(returnCookieName, "", -1))

	return c.Redirect(http.StatusFound, returnTo)
}

// Logout handles POST /auth/logout: clears the session and forwards to
// the provider logout so the hosted session ends too. Logout is POST-only
// to keep it behind a form submission.
func (h *AuthFlowHandler) Logout(c echo.Context) error {
	c.SetCookie(h.store.Clear())

	origin := c.Scheme() + "://" + c.Request().Host
	return c.Redirect(http.StatusFound, h.idp.LogoutURL(origin))
}

// LogoutRedirect handles GET /auth/logout, which performs no action.
func (h *AuthFlowHandler) LogoutRedirect(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/")
}

func (h *AuthFlowHandler) flowCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
