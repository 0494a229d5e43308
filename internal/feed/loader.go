package feed

import (
	"context"
	"errors"
	"sync"

	"alignment-feed-bff/internal/domain"
)

// ErrLoadSuperseded is returned when a newer Load call cancelled this one.
var ErrLoadSuperseded = errors.New("load superseded by a newer request")

// Fetcher fetches one page of articles for a query string.
type Fetcher interface {
	FetchPage(ctx context.Context, query string, page, pageSize int) ([]domain.Article, error)
}

// Loader accumulates pages of articles for the current query. Starting a
// new load cancels the in-flight one, and a cancelled fetch never
// mutates loader state, so stale responses cannot clobber a newer query.
type Loader struct {
	fetcher  Fetcher
	pageSize int

	mu       sync.Mutex
	query    string
	page     int
	articles []domain.Article
	hasMore  bool
	cancel   context.CancelFunc
	gen      uint64
}

// NewLoader creates a loader. pageSize must be positive.
func NewLoader(fetcher Fetcher, pageSize int) *Loader {
	return &Loader{fetcher: fetcher, pageSize: pageSize, hasMore: true}
}

// Articles returns a copy of the accumulated articles.
func (l *Loader) Articles() []domain.Article {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Article, len(l.articles))
	copy(out, l.articles)
	return out
}

// HasMore reports whether the last loaded page was full.
func (l *Loader) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasMore
}

// Load fetches the next page for query. A query change resets the
// accumulated list and restarts at page 1; the same query appends the
// next page. Only the newest call may commit its result.
func (l *Loader) Load(ctx context.Context, query string) ([]domain.Article, error) {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.gen++
	gen := l.gen

	reset := query != l.query
	page := l.page + 1
	if reset {
		page = 1
	}
	l.mu.Unlock()

	articles, err := l.fetcher.FetchPage(fetchCtx, query, page, l.pageSize)

	l.mu.Lock()
	defer l.mu.Unlock()

	// A newer Load superseded this one while it was in flight; its result
	// must not touch state regardless of success.
	if gen != l.gen {
		return nil, ErrLoadSuperseded
	}
	if err != nil {
		if fetchCtx.Err() != nil {
			return nil, ErrLoadSuperseded
		}
		return nil, err
	}

	if reset {
		l.query = query
		l.articles = nil
	}
	l.page = page
	l.articles = append(l.articles, articles...)
	l.hasMore = len(articles) == l.pageSize

	out := make([]domain.Article, len(l.articles))
	copy(out, l.articles)
	return out, nil
}

// Reset clears the loader back to its initial state and cancels any
// in-flight fetch.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
	l.query = ""
	l.page = 0
	l.articles = nil
	l.hasMore = true
}
