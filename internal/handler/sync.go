package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"alignment-feed-bff/internal/domain"
	"alignment-feed-bff/internal/idp"
	"alignment-feed-bff/internal/session"
)

// syncRequest is the body of POST /api/auth/sync.
type syncRequest struct {
	Action      string `json:"action"`
	AccessToken string `json:"accessToken"`
}

// SyncHandler reconciles a client-side login state with the server
// session: the front-end posts here after it authenticates or logs out
// through a channel the server did not see, so the sealed cookie catches
// up with reality.
type SyncHandler struct {
	store         *session.Store
	defaultExpiry time.Duration
}

// NewSyncHandler creates a sync handler. defaultExpiry is assumed for
// access tokens whose claims carry no expiry.
func NewSyncHandler(store *session.Store, defaultExpiry time.Duration) *SyncHandler {
	return &SyncHandler{store: store, defaultExpiry: defaultExpiry}
}

// Handle processes POST /api/auth/sync.
func (h *SyncHandler) Handle(c echo.Context) error {
	var req syncRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	switch req.Action {
	case "login":
		return h.login(c, req.AccessToken)
	case "logout":
		c.SetCookie(h.store.Clear())
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid action"})
	}
}

func (h *SyncHandler) login(c echo.Context, accessToken string) error {
	if accessToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "accessToken required"})
	}

	sess := &domain.Session{
		AccessToken: accessToken,
		ExpiresAt:   time.Now().Add(h.defaultExpiry),
	}
	// Identity comes from the token itself; sync has no refresh token to
	// offer, so the session lives until the access token expires.
	if claims, ok := idp.TokenClaims(accessToken); ok {
		sess.UserID = claims.Subject
		sess.Email = claims.Email
		if !claims.ExpiresAt.IsZero() {
			sess.ExpiresAt = claims.ExpiresAt
		}
	}
	if sess.UserID == "" {
		sess.UserID = "unknown"
	}

	cookie, err := h.store.Write(sess)
	if err != nil {
		slog.ErrorContext(c.Request().Context(), "failed to seal synced session", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to establish session"})
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
