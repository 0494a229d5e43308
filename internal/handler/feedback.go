package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"alignment-feed-bff/internal/client"
	"alignment-feed-bff/internal/middleware"
)

// feedbackRequest is the body of POST /api/articles/:id/feedback.
type feedbackRequest struct {
	Action string `json:"action"`
	Value  bool   `json:"value"`
}

// feedbackEndpoints maps front-end feedback actions to upstream path
// segments. Each upstream mutation is idempotent for a fixed value.
var feedbackEndpoints = map[string]string{
	"thumbs_up":   "thumbs_up",
	"thumbs_down": "thumbs_down",
	"read":        "read",
}

// FeedbackHandler proxies per-article feedback mutations.
type FeedbackHandler struct {
	feed *client.FeedClient
}

// NewFeedbackHandler creates a feedback handler.
func NewFeedbackHandler(feed *client.FeedClient) *FeedbackHandler {
	return &FeedbackHandler{feed: feed}
}

// Handle processes POST /api/articles/:id/feedback.
func (h *FeedbackHandler) Handle(c echo.Context) error {
	articleID := c.Param("id")
	if articleID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "article ID required"})
	}

	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	segment, ok := feedbackEndpoints[req.Action]
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid action"})
	}

	ctx := c.Request().Context()
	res := middleware.Resolve(c)

	endpoint := fmt.Sprintf("/v1/articles/%s/%s/%t", url.PathEscape(articleID), segment, req.Value)
	resp, err := h.feed.Do(ctx, http.MethodPost, endpoint, "", nil, "", res.Auth.AccessToken)
	if err != nil {
		slog.ErrorContext(ctx, "feedback mutation failed", "article_id", articleID, "action", req.Action, "error", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "failed to update feedback"})
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.JSON(resp.StatusCode, echo.Map{"error": "failed to update feedback"})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
