package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alignment-feed-bff/internal/client"
	"alignment-feed-bff/internal/domain"
)

func TestPagedFetcher(t *testing.T) {
	t.Run("appends paging after the filter query", func(t *testing.T) {
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.Write([]byte(`{"data":[]}`))
		}))
		defer srv.Close()

		f := NewPagedFetcher(client.New(srv.URL, time.Second, nil), "")
		_, err := f.FetchPage(context.Background(), "filter_title_fulltext=debate", 3, 25)
		require.NoError(t, err)

		assert.Equal(t, "filter_title_fulltext=debate&page=3&page_size=25", gotQuery)
	})

	t.Run("maps a 401 to the typed credential error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		f := NewPagedFetcher(client.New(srv.URL, time.Second, nil), "stale")
		_, err := f.FetchPage(context.Background(), "", 1, 25)

		assert.ErrorIs(t, err, domain.ErrUpstreamUnauthorized)
	})

	t.Run("maps a 5xx to the availability error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		f := NewPagedFetcher(client.New(srv.URL, time.Second, nil), "")
		_, err := f.FetchPage(context.Background(), "", 1, 25)

		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	})

	t.Run("surfaces parse failures as errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":[{"title":"no hash_id"}]}`))
		}))
		defer srv.Close()

		f := NewPagedFetcher(client.New(srv.URL, time.Second, nil), "")
		_, err := f.FetchPage(context.Background(), "", 1, 25)

		assert.Error(t, err)
	})
}
