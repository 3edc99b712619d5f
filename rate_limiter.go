package rest

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talentbridge/placement-rest/helpers"
	"github.com/talentbridge/placement-rest/http_errors"
)

// RateLimit is the ceiling applied to one key: at most Max admissions per
// Window. Key, when set, overrides the default client-address key.
type RateLimit struct {
	Max    int
	Window time.Duration
	Key    string
}

// RateDecision is the outcome of an admission check.
type RateDecision struct {
	Allowed           bool
	Count             int64
	RetryAfterSeconds int
}

// RateStore counts admissions per key inside a fixed window. Implementations
// must make the check-then-increment atomic per key: two concurrent
// admissions for the same key must never both observe a pre-increment count.
type RateStore interface {
	// Incr increments the counter for key, starting a new window when none is
	// active, and returns the post-increment count plus the time left in the
	// window.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// rateWindowEntry is one in-memory counter. The window is fixed: the counter
// resets when resetAt passes, it does not slide continuously.
type rateWindowEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryRateStore is the default in-process RateStore. State is process-wide
// and lost on restart; with multiple instances each process enforces its own
// ceiling, so deployments that need a global limit must use RedisRateStore.
type MemoryRateStore struct {
	mu      sync.Mutex
	entries map[string]*rateWindowEntry
}

func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{entries: make(map[string]*rateWindowEntry)}
}

func (store *MemoryRateStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := time.Now()

	store.mu.Lock()
	defer store.mu.Unlock()

	// Amortized cleanup: evict every expired counter while we hold the lock,
	// instead of running a background timer.
	for existingKey, entry := range store.entries {
		if !now.Before(entry.resetAt) {
			delete(store.entries, existingKey)
		}
	}

	entry, ok := store.entries[key]
	if !ok || !now.Before(entry.resetAt) {
		entry = &rateWindowEntry{count: 0, resetAt: now.Add(window)}
		store.entries[key] = entry
	}

	entry.count++
	return entry.count, entry.resetAt.Sub(now), nil
}

// Len returns the number of live counters. Intended for tests and metrics.
func (store *MemoryRateStore) Len() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.entries)
}

// RedisRateStore shares counters across instances through Redis. The INCR and
// EXPIRE NX run in one transaction so the window start is set exactly once.
type RedisRateStore struct {
	client *redis.Client
}

func NewRedisRateStore(client *redis.Client) *RedisRateStore {
	return &RedisRateStore{client: client}
}

// NewDefaultRedisClient builds a client from REDIS_HOST, REDIS_PORT and
// REDIS_PASSWORD with local fallbacks.
func NewDefaultRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     helpers.GetEnv("REDIS_HOST", "localhost") + ":" + helpers.GetEnv("REDIS_PORT", "6379"),
		Password: helpers.GetEnv("REDIS_PASSWORD", ""),
		DB:       1, // Use database 1 for rate limiting
	})
}

func (store *RedisRateStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := store.client.TxPipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttlCmd := pipe.TTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	count, err := incrCmd.Result()
	if err != nil {
		return 0, 0, err
	}

	remaining, err := ttlCmd.Result()
	if err != nil || remaining < 0 {
		remaining = window
	}

	return count, remaining, nil
}

// authKeyPrefix separates the stricter auth-route counters from the general
// keyspace so a burst of API traffic cannot mask a credential-stuffing run.
const authKeyPrefix = "auth:"

// admit runs one admission check against the store and never performs I/O
// beyond it.
func admit(ctx context.Context, store RateStore, key string, limit RateLimit) (*RateDecision, error) {
	count, remaining, err := store.Incr(ctx, key, limit.Window)
	if err != nil {
		return nil, err
	}

	if count > int64(limit.Max) {
		return &RateDecision{
			Allowed:           false,
			Count:             count,
			RetryAfterSeconds: int(math.Ceil(remaining.Seconds())),
		}, nil
	}

	return &RateDecision{Allowed: true, Count: count}, nil
}

// checkRateLimit gates a request before any business logic runs. Auth
// sensitive endpoints get their own, materially lower ceiling under a
// prefixed key.
func checkRateLimit(e *EndpointContext) error {
	app := e.App
	if app.rateStore == nil {
		return nil
	}

	limit := app.options.RateLimit
	key := e.IpAddress

	if e.Endpoint.AuthSensitive {
		limit = app.options.AuthRateLimit
		key = authKeyPrefix + key
	}

	if e.Endpoint.RateLimiter != nil {
		custom := e.Endpoint.RateLimiter(e)
		if custom.Max > 0 {
			limit = custom
		}
		if custom.Key != "" {
			key = custom.Key
		}
	}

	if limit.Max <= 0 || limit.Window <= 0 {
		return nil
	}

	decision, err := admit(e.Context(), app.rateStore, key, limit)
	if err != nil {
		// The governor must not take the API down with it; a broken store
		// admits the request.
		app.Errorf("rate limit check failed for %s: %v", key, err)
		return nil
	}

	if !decision.Allowed {
		app.Warnf("rate limit exceeded for %s: %d requests", key, decision.Count)
		return http_errors.RateLimitExceededError(decision.RetryAfterSeconds)
	}

	return nil
}
