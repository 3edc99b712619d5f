package rest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// CacheStatusHeader reports whether a cacheable GET was served from the
// store ("HIT") or freshly computed ("MISS").
const CacheStatusHeader = "X-Cache"

// CacheEntry is one stored response body with its expiry.
type CacheEntry struct {
	ExpiresAt time.Time
	Payload   []byte
}

// CacheStore is the injectable TTL key-value store behind the response cache.
// The default in-memory implementation is single-instance only; swapping in
// an external store changes deployment scope without touching the middleware.
type CacheStore interface {
	Get(key string) (*CacheEntry, bool)
	Set(key string, payload []byte, ttl time.Duration)
	Delete(key string)
}

// MemoryCacheStore keeps entries in a process-wide map. Entries expire lazily
// on read plus an opportunistic sweep on write; nothing invalidates them
// earlier (pure TTL, staleness-tolerant by design).
type MemoryCacheStore struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
}

func NewMemoryCacheStore() *MemoryCacheStore {
	return &MemoryCacheStore{entries: make(map[string]*CacheEntry)}
}

func (store *MemoryCacheStore) Get(key string) (*CacheEntry, bool) {
	store.mu.RLock()
	entry, ok := store.entries[key]
	store.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if !time.Now().Before(entry.ExpiresAt) {
		store.Delete(key)
		return nil, false
	}

	return entry, true
}

func (store *MemoryCacheStore) Set(key string, payload []byte, ttl time.Duration) {
	now := time.Now()

	store.mu.Lock()
	defer store.mu.Unlock()

	for existingKey, entry := range store.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(store.entries, existingKey)
		}
	}

	store.entries[key] = &CacheEntry{
		ExpiresAt: now.Add(ttl),
		Payload:   payload,
	}
}

func (store *MemoryCacheStore) Delete(key string) {
	store.mu.Lock()
	delete(store.entries, key)
	store.mu.Unlock()
}

// Len returns the number of live entries. Intended for tests.
func (store *MemoryCacheStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.entries)
}

// cacheKey hashes the request identity. The raw authorization value (header
// or cookie) is part of the key on purpose: two callers hitting the same path
// must never observe each other's cached payload, and an anonymous caller
// never sees an authenticated one's.
func cacheKey(request *http.Request) string {
	auth := request.Header.Get("Authorization")
	if auth == "" {
		if cookie, err := request.Cookie(AccessTokenCookie); err == nil {
			auth = cookie.Value
		}
	}

	sum := sha256.Sum256([]byte(request.URL.RequestURI() + "|auth:" + auth))
	return hex.EncodeToString(sum[:])
}

// responseRecorder tees the response body so the middleware can observe what
// the handler produced at a defined seam instead of patching the writer back
// in afterwards.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (rec *responseRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *responseRecorder) Write(data []byte) (int, error) {
	rec.body.Write(data)
	return rec.ResponseWriter.Write(data)
}

// cacheIntercept serves a GET from the cache when a live entry exists,
// otherwise runs the handler and captures its JSON body. Caching is
// best-effort: a failure on the cache side never blocks the real response.
func cacheIntercept(ctx *EndpointContext, ttl time.Duration, next func(*EndpointContext) error) error {
	echoCtx := ctx.EchoCtx
	request := echoCtx.Request()

	store := ctx.App.cacheStore
	if store == nil || request.Method != http.MethodGet {
		return next(ctx)
	}

	key := cacheKey(request)

	if entry, ok := store.Get(key); ok {
		echoCtx.Response().Header().Set(CacheStatusHeader, "HIT")
		return echoCtx.JSONBlob(http.StatusOK, entry.Payload)
	}

	echoCtx.Response().Header().Set(CacheStatusHeader, "MISS")

	recorder := &responseRecorder{ResponseWriter: echoCtx.Response().Writer, status: http.StatusOK}
	echoCtx.Response().Writer = recorder

	err := next(ctx)

	if err == nil && recorder.status < 300 && isJSONResponse(echoCtx) && recorder.body.Len() > 0 {
		payload := make([]byte, recorder.body.Len())
		copy(payload, recorder.body.Bytes())
		store.Set(key, payload, ttl)
	}

	return err
}

func isJSONResponse(echoCtx echo.Context) bool {
	contentType := echoCtx.Response().Header().Get(echo.HeaderContentType)
	return strings.HasPrefix(contentType, echo.MIMEApplicationJSON)
}
