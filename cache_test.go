package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheStore(t *testing.T) {
	t.Run("set then get returns the payload", func(t *testing.T) {
		store := NewMemoryCacheStore()
		store.Set("key", []byte(`{"a":1}`), time.Minute)

		entry, ok := store.Get("key")
		require.True(t, ok)
		assert.Equal(t, []byte(`{"a":1}`), entry.Payload)
	})

	t.Run("missing key", func(t *testing.T) {
		store := NewMemoryCacheStore()
		_, ok := store.Get("absent")
		assert.False(t, ok)
	})

	t.Run("entries expire after their ttl", func(t *testing.T) {
		store := NewMemoryCacheStore()
		store.Set("key", []byte("payload"), 10*time.Millisecond)

		time.Sleep(20 * time.Millisecond)

		_, ok := store.Get("key")
		assert.False(t, ok)
		assert.Equal(t, 0, store.Len(), "expired entries are removed on read")
	})

	t.Run("writes sweep expired entries", func(t *testing.T) {
		store := NewMemoryCacheStore()
		store.Set("old-a", []byte("x"), 10*time.Millisecond)
		store.Set("old-b", []byte("y"), 10*time.Millisecond)

		time.Sleep(20 * time.Millisecond)

		store.Set("fresh", []byte("z"), time.Minute)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("delete removes the entry", func(t *testing.T) {
		store := NewMemoryCacheStore()
		store.Set("key", []byte("payload"), time.Minute)
		store.Delete("key")

		_, ok := store.Get("key")
		assert.False(t, ok)
	})
}

func TestCacheKey(t *testing.T) {
	t.Run("same path and token produce the same key", func(t *testing.T) {
		first := httptest.NewRequest("GET", "/api/jobs", nil)
		first.Header.Set("Authorization", "Bearer token-a")
		second := httptest.NewRequest("GET", "/api/jobs", nil)
		second.Header.Set("Authorization", "Bearer token-a")

		assert.Equal(t, cacheKey(first), cacheKey(second))
	})

	t.Run("different tokens partition the cache", func(t *testing.T) {
		first := httptest.NewRequest("GET", "/api/jobs", nil)
		first.Header.Set("Authorization", "Bearer token-a")
		second := httptest.NewRequest("GET", "/api/jobs", nil)
		second.Header.Set("Authorization", "Bearer token-b")

		assert.NotEqual(t, cacheKey(first), cacheKey(second))
	})

	t.Run("anonymous and authenticated callers never share a key", func(t *testing.T) {
		anonymous := httptest.NewRequest("GET", "/api/jobs", nil)
		authenticated := httptest.NewRequest("GET", "/api/jobs", nil)
		authenticated.Header.Set("Authorization", "Bearer token-a")

		assert.NotEqual(t, cacheKey(anonymous), cacheKey(authenticated))
	})

	t.Run("query string is part of the key", func(t *testing.T) {
		plain := httptest.NewRequest("GET", "/api/jobs", nil)
		filtered := httptest.NewRequest("GET", "/api/jobs?filter=%7B%22limit%22%3A5%7D", nil)

		assert.NotEqual(t, cacheKey(plain), cacheKey(filtered))
	})

	t.Run("cookie token is used when no header is present", func(t *testing.T) {
		withCookie := httptest.NewRequest("GET", "/api/jobs", nil)
		withCookie.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie-token"})

		withHeader := httptest.NewRequest("GET", "/api/jobs", nil)
		withHeader.Header.Set("Authorization", "cookie-token")

		assert.Equal(t, cacheKey(withHeader), cacheKey(withCookie))
	})
}
