package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"alignment-feed-bff/internal/client"
	"alignment-feed-bff/internal/middleware"
)

// TokenHandler proxies API-key management to the upstream API. Every
// operation requires an authenticated session; the upstream scopes keys
// to the calling user.
type TokenHandler struct {
	feed *client.FeedClient
}

// NewTokenHandler creates a token handler.
func NewTokenHandler(feed *client.FeedClient) *TokenHandler {
	return &TokenHandler{feed: feed}
}

// List handles GET /api/tokens.
func (h *TokenHandler) List(c echo.Context) error {
	return h.proxy(c, http.MethodGet, "/v1/tokens")
}

// Create handles POST /api/tokens.
func (h *TokenHandler) Create(c echo.Context) error {
	return h.proxy(c, http.MethodPost, "/v1/tokens")
}

// Delete handles DELETE /api/tokens/:id.
func (h *TokenHandler) Delete(c echo.Context) error {
	tokenID := c.Param("id")
	if tokenID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token ID required"})
	}

	ctx := c.Request().Context()
	res := middleware.Resolve(c)
	if !res.Auth.IsAuthenticated {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	resp, err := h.feed.Do(ctx, http.MethodDelete, "/v1/tokens/"+url.PathEscape(tokenID), "", nil, "", res.Auth.AccessToken)
	if err != nil {
		slog.ErrorContext(ctx, "token deletion failed", "error", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "failed to delete token"})
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.JSON(resp.StatusCode, echo.Map{"error": "failed to delete token"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *TokenHandler) proxy(c echo.Context, method, endpoint string) error {
	ctx := c.Request().Context()
	res := middleware.Resolve(c)
	if !res.Auth.IsAuthenticated {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	var body io.Reader
	contentType := ""
	if method == http.MethodPost {
		body = c.Request().Body
		contentType = echo.MIMEApplicationJSON
	}

	resp, err := h.feed.Do(ctx, method, endpoint, "", body, contentType, res.Auth.AccessToken)
	if err != nil {
		slog.ErrorContext(ctx, "token request failed", "method", method, "error", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "failed to reach alignment feed"})
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "failed to read upstream response"})
	}

	respContentType := resp.Header.Get(echo.HeaderContentType)
	if respContentType == "" {
		respContentType = echo.MIMEApplicationJSON
	}
	return c.Blob(resp.StatusCode, respContentType, payload)
}
