package session

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alignment-feed-bff/internal/domain"
)

const testSecret = "test-session-secret-0123456789"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(testSecret, time.Hour, false)
	require.NoError(t, err)
	return store
}

func requestWithCookie(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestNewStore(t *testing.T) {
	t.Run("rejects an empty secret", func(t *testing.T) {
		_, err := NewStore("", time.Hour, false)
		assert.Error(t, err)
	})

	t.Run("defaults a non-positive max age", func(t *testing.T) {
		store, err := NewStore(testSecret, 0, false)
		require.NoError(t, err)

		cookie, err := store.Write(&domain.Session{AccessToken: "tok"})
		require.NoError(t, err)
		assert.Equal(t, int(DefaultMaxAge.Seconds()), cookie.MaxAge)
	})
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	sess := &domain.Session{
		UserID:       "auth0|user1",
		Email:        "u@example.com",
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
	}

	cookie, err := store.Write(sess)
	require.NoError(t, err)
	assert.Equal(t, CookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)

	got := store.Read(requestWithCookie(cookie))
	require.NotNil(t, got)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.Equal(t, sess.Email, got.Email)
	assert.Equal(t, sess.AccessToken, got.AccessToken)
	assert.Equal(t, sess.RefreshToken, got.RefreshToken)
	assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))
}

func TestStoreReadFailsClosed(t *testing.T) {
	store := newTestStore(t)

	t.Run("absent cookie reads as nil", func(t *testing.T) {
		assert.Nil(t, store.Read(requestWithCookie(nil)))
	})

	t.Run("garbage value reads as nil", func(t *testing.T) {
		assert.Nil(t, store.Read(requestWithCookie(&http.Cookie{Name: CookieName, Value: "not-a-session"})))
	})

	t.Run("single flipped bit reads as nil", func(t *testing.T) {
		cookie, err := store.Write(&domain.Session{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)})
		require.NoError(t, err)

		sealed, err := base64.RawURLEncoding.DecodeString(cookie.Value)
		require.NoError(t, err)
		sealed[len(sealed)-1] ^= 0x01
		cookie.Value = base64.RawURLEncoding.EncodeToString(sealed)

		assert.Nil(t, store.Read(requestWithCookie(cookie)))
	})

	t.Run("cookie sealed under a different secret reads as nil", func(t *testing.T) {
		other, err := NewStore("a-completely-different-secret", time.Hour, false)
		require.NoError(t, err)

		cookie, err := other.Write(&domain.Session{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Hour)})
		require.NoError(t, err)

		assert.Nil(t, store.Read(requestWithCookie(cookie)))
	})

	t.Run("sealed session without an access token reads as nil", func(t *testing.T) {
		cookie, err := store.Write(&domain.Session{UserID: "auth0|user1"})
		require.NoError(t, err)

		assert.Nil(t, store.Read(requestWithCookie(cookie)))
	})
}

func TestStoreClear(t *testing.T) {
	store := newTestStore(t)

	cookie := store.Clear()
	assert.Equal(t, CookieName, cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
}
