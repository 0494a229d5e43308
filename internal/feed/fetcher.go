package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"alignment-feed-bff/internal/client"
	"alignment-feed-bff/internal/domain"
)

// PagedFetcher loads article pages from the feed API for the Loader.
type PagedFetcher struct {
	feed        *client.FeedClient
	accessToken string
}

// NewPagedFetcher creates a fetcher. accessToken may be empty for
// anonymous browsing.
func NewPagedFetcher(feed *client.FeedClient, accessToken string) *PagedFetcher {
	return &PagedFetcher{feed: feed, accessToken: accessToken}
}

// FetchPage fetches one page of articles. query is the raw filter query
// string and is forwarded untouched ahead of the paging parameters.
func (f *PagedFetcher) FetchPage(ctx context.Context, query string, page, pageSize int) ([]domain.Article, error) {
	rawQuery := fmt.Sprintf("page=%d&page_size=%d", page, pageSize)
	if query != "" {
		rawQuery = query + "&" + rawQuery
	}

	resp, err := f.feed.Get(ctx, "/v1/articles", rawQuery, f.accessToken)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, domain.ErrUpstreamUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	result := domain.ParseArticles(body)
	if !result.OK {
		return nil, result.Err
	}
	return result.Data.Data, nil
}
