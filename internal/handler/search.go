package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"alignment-feed-bff/internal/client"
	"alignment-feed-bff/internal/middleware"
)

// searchRequest is the body of POST /api/articles/semantic-search.
type searchRequest struct {
	Text  string `json:"text"`
	Limit int    `json:"limit,omitempty"`
}

// SearchHandler proxies semantic search to the upstream API.
type SearchHandler struct {
	feed *client.FeedClient
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(feed *client.FeedClient) *SearchHandler {
	return &SearchHandler{feed: feed}
}

// Handle processes POST /api/articles/semantic-search.
func (h *SearchHandler) Handle(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "search text required"})
	}

	encoded, err := json.Marshal(req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	res := middleware.Resolve(c)

	resp, err := h.feed.Do(ctx, http.MethodPost, "/v1/articles/semantic-search", "",
		bytes.NewReader(encoded), echo.MIMEApplicationJSON, res.Auth.AccessToken)
	if err != nil {
		slog.ErrorContext(ctx, "semantic search failed", "error", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "semantic search failed"})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "semantic search failed"})
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = "semantic search failed"
		}
		return c.JSON(resp.StatusCode, echo.Map{"error": msg})
	}

	return c.JSONBlob(http.StatusOK, body)
}
