package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "/v1/articles", Key("/v1/articles", ""))
	assert.Equal(t, "/v1/articles?page=2&sort=-published_at", Key("/v1/articles", "page=2&sort=-published_at"))
}

func TestResponseCache(t *testing.T) {
	t.Run("returns stored entries", func(t *testing.T) {
		c := New(8, time.Minute)
		c.Set("k", Entry{Body: []byte(`{"articles":[]}`), StatusCode: 200, ContentType: "application/json"})

		e, ok := c.Get("k")
		require.True(t, ok)
		assert.Equal(t, 200, e.StatusCode)
		assert.JSONEq(t, `{"articles":[]}`, string(e.Body))
	})

	t.Run("misses on unknown keys", func(t *testing.T) {
		c := New(8, time.Minute)
		_, ok := c.Get("absent")
		assert.False(t, ok)
	})

	t.Run("expires entries after the TTL", func(t *testing.T) {
		c := New(8, 20*time.Millisecond)
		c.Set("k", Entry{StatusCode: 200})

		time.Sleep(50 * time.Millisecond)
		_, ok := c.Get("k")
		assert.False(t, ok)
	})

	t.Run("purge drops everything", func(t *testing.T) {
		c := New(8, time.Minute)
		c.Set("a", Entry{})
		c.Set("b", Entry{})
		c.Purge()

		_, ok := c.Get("a")
		assert.False(t, ok)
		assert.Zero(t, c.Snapshot().Size)
	})

	t.Run("counts hits and misses", func(t *testing.T) {
		c := New(8, time.Minute)
		c.Set("k", Entry{})
		c.Get("k")
		c.Get("k")
		c.Get("absent")

		snap := c.Snapshot()
		assert.Equal(t, int64(2), snap.Hits)
		assert.Equal(t, int64(1), snap.Misses)
		assert.Equal(t, 1, snap.Size)
	})
}
