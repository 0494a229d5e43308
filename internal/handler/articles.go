// Package handler provides the HTTP handlers for the BFF surface the
// browser talks to.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"alignment-feed-bff/internal/cache"
	"alignment-feed-bff/internal/client"
	"alignment-feed-bff/internal/domain"
	"alignment-feed-bff/internal/middleware"
	"alignment-feed-bff/internal/resilience"
)

// ArticlesPayload is the list response shape the front-end consumes.
type ArticlesPayload struct {
	Articles        []domain.Article `json:"articles"`
	IsAuthenticated bool             `json:"isAuthenticated"`
}

// ArticleHandler proxies article endpoints to the Alignment Feed API.
type ArticleHandler struct {
	feed      *client.FeedClient
	respCache *cache.ResponseCache
}

// NewArticleHandler creates an article handler. respCache may be nil to
// disable anonymous response caching.
func NewArticleHandler(feed *client.FeedClient, respCache *cache.ResponseCache) *ArticleHandler {
	return &ArticleHandler{feed: feed, respCache: respCache}
}

// List handles GET /api/articles. Query parameters (page, page_size,
// sort, filter_*) pass through to the upstream API verbatim.
func (h *ArticleHandler) List(c echo.Context) error {
	return h.proxyList(c, "/v1/articles", false, true, "articles")
}

// Recommended handles GET /api/articles/recommended.
func (h *ArticleHandler) Recommended(c echo.Context) error {
	return h.proxyList(c, "/v1/articles/recommended", true, false, "recommended articles")
}

// Liked handles GET /api/articles/liked.
func (h *ArticleHandler) Liked(c echo.Context) error {
	return h.proxyList(c, "/v1/articles/liked", true, false, "liked articles")
}

// Disliked handles GET /api/articles/disliked.
func (h *ArticleHandler) Disliked(c echo.Context) error {
	return h.proxyList(c, "/v1/articles/disliked", true, false, "disliked articles")
}

// Unreviewed handles GET /api/articles/unreviewed.
func (h *ArticleHandler) Unreviewed(c echo.Context) error {
	return h.proxyList(c, "/v1/articles/unreviewed", true, false, "unreviewed articles")
}

// Detail handles GET /api/articles/:id, passing the upstream response
// through unchanged.
func (h *ArticleHandler) Detail(c echo.Context) error {
	return h.proxyRaw(c, "/v1/articles/"+url.PathEscape(c.Param("id")))
}

// Similar handles GET /api/articles/:id/similar.
func (h *ArticleHandler) Similar(c echo.Context) error {
	return h.proxyRaw(c, "/v1/articles/"+url.PathEscape(c.Param("id"))+"/similar")
}

// proxyList fetches an article list with the standard degradation rules:
// anonymous on auth-required endpoints, upstream failures, 401s, and
// malformed payloads all produce an empty list rather than an error page.
func (h *ArticleHandler) proxyList(c echo.Context, endpoint string, requireAuth, cacheable bool, label string) error {
	ctx := c.Request().Context()
	res := middleware.Resolve(c)
	authed := res.Auth.IsAuthenticated

	if requireAuth && !authed {
		return c.JSON(http.StatusOK, ArticlesPayload{Articles: []domain.Article{}, IsAuthenticated: false})
	}

	rawQuery := c.Request().URL.RawQuery
	cacheKey := cache.Key(endpoint, rawQuery)
	useCache := cacheable && !authed && h.respCache != nil

	if useCache {
		if entry, ok := h.respCache.Get(cacheKey); ok {
			return c.JSONBlob(entry.StatusCode, entry.Body)
		}
	}

	resp, err := h.feed.Get(ctx, endpoint, rawQuery, res.Auth.AccessToken)
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return c.JSON(http.StatusServiceUnavailable,
				echo.Map{"error": "alignment feed is temporarily unavailable, try again shortly"})
		}
		slog.ErrorContext(ctx, "failed to fetch "+label, "error", err)
		return c.JSON(http.StatusOK, ArticlesPayload{Articles: []domain.Article{}, IsAuthenticated: authed})
	}
	defer resp.Body.Close()

	// A 401 means the token went stale between resolution and use; fall
	// back to the anonymous path, never re-authenticate mid-request.
	if requireAuth && resp.StatusCode == http.StatusUnauthorized {
		return c.JSON(http.StatusOK, ArticlesPayload{Articles: []domain.Article{}, IsAuthenticated: false})
	}
	if resp.StatusCode != http.StatusOK {
		slog.ErrorContext(ctx, "upstream returned non-OK fetching "+label, "status", resp.StatusCode)
		return c.JSON(http.StatusOK, ArticlesPayload{Articles: []domain.Article{}, IsAuthenticated: authed})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read "+label+" response", "error", err)
		return c.JSON(http.StatusOK, ArticlesPayload{Articles: []domain.Article{}, IsAuthenticated: authed})
	}

	result := domain.ParseArticles(body)
	if !result.OK {
		slog.ErrorContext(ctx, "failed to parse "+label, "error", result.Err)
		return c.JSON(http.StatusOK, ArticlesPayload{Articles: []domain.Article{}, IsAuthenticated: authed})
	}

	payload := ArticlesPayload{Articles: result.Data.Data, IsAuthenticated: authed}

	if useCache {
		if encoded, err := json.Marshal(payload); err == nil {
			h.respCache.Set(cacheKey, cache.Entry{
				Body:        encoded,
				StatusCode:  http.StatusOK,
				ContentType: echo.MIMEApplicationJSON,
			})
		}
	}

	return c.JSON(http.StatusOK, payload)
}

// proxyRaw forwards a single-resource GET and mirrors the upstream
// status and body.
func (h *ArticleHandler) proxyRaw(c echo.Context, endpoint string) error {
	ctx := c.Request().Context()
	res := middleware.Resolve(c)

	resp, err := h.feed.Get(ctx, endpoint, c.Request().URL.RawQuery, res.Auth.AccessToken)
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return c.JSON(http.StatusServiceUnavailable,
				echo.Map{"error": "alignment feed is temporarily unavailable, try again shortly"})
		}
		slog.ErrorContext(ctx, "failed to proxy article request", "endpoint", endpoint, "error", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "failed to reach alignment feed"})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "failed to read upstream response"})
	}

	contentType := resp.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = echo.MIMEApplicationJSON
	}
	return c.Blob(resp.StatusCode, contentType, body)
}
