package handler

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchHandler(t *testing.T) {
	t.Run("forwards the search body and returns the upstream result", func(t *testing.T) {
		var gotBody []byte
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotBody, _ = io.ReadAll(r.Body)
			assert.Equal(t, "/v1/articles/semantic-search", r.URL.Path)
			w.Write([]byte(`{"data":[{"hash_id":"h1"}]}`))
		}))
		defer srv.Close()

		env := newAuthEnv(t)
		h := NewSearchHandler(newFeedClient(srv.URL))

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/articles/semantic-search",
			strings.NewReader(`{"text":"scalable oversight","limit":5}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		require.NoError(t, h.Handle(env.newContext(t, e, rec, req)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"text":"scalable oversight","limit":5}`, string(gotBody))
		assert.JSONEq(t, `{"data":[{"hash_id":"h1"}]}`, rec.Body.String())
	})

	t.Run("rejects empty search text", func(t *testing.T) {
		env := newAuthEnv(t)
		h := NewSearchHandler(newFeedClient("http://127.0.0.1:0"))

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/articles/semantic-search",
			strings.NewReader(`{"text":"   "}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		require.NoError(t, h.Handle(env.newContext(t, e, rec, req)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "search text required")
	})

	t.Run("surfaces the upstream error body and status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte("query too long"))
		}))
		defer srv.Close()

		env := newAuthEnv(t)
		h := NewSearchHandler(newFeedClient(srv.URL))

		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/articles/semantic-search",
			strings.NewReader(`{"text":"x"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		require.NoError(t, h.Handle(env.newContext(t, e, rec, req)))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "query too long")
	})
}
