package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Aside implements the cache-aside read path on top of a Store. The store
// is a performance optimization only: any store fault degrades to a fetch,
// it never fails a request.
type Aside struct {
	store  Store
	logger *slog.Logger

	sf singleflight.Group
}

func NewAside(store Store, logger *slog.Logger) *Aside {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Aside{store: store, logger: logger}
}

// GetOrSet returns the cached value for key, or invokes fetch, stores the
// result with the given TTL, and returns it. Concurrent misses on the same
// key are collapsed so fetch runs once. A fetch failure propagates
// unchanged and writes nothing to the store.
func GetOrSet[T any](ctx context.Context, a *Aside, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := Get[T](ctx, a, key); ok {
		return v, nil
	}

	v, err, _ := a.sf.Do(key, func() (any, error) {
		val, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		a.Set(ctx, key, val, ttl)
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return v.(T), nil
}

// Get returns the decoded value for key. Store faults and undecodable
// payloads both report a miss.
func Get[T any](ctx context.Context, a *Aside, key string) (T, bool) {
	var zero T

	raw, err := a.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			a.logger.WarnContext(ctx, "cache store unavailable, treating as miss", "key", key, "error", err)
		}
		return zero, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		a.logger.WarnContext(ctx, "undecodable cache entry, treating as miss", "key", key, "error", err)
		return zero, false
	}

	return v, true
}

// Set writes value under key with the given TTL. Write failures are logged
// and swallowed; a value that cannot be cached is still a valid value.
func (a *Aside) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		a.logger.WarnContext(ctx, "value not serializable, skipping cache write", "key", key, "error", err)
		return
	}

	if err := a.store.Set(ctx, key, raw, ttl); err != nil {
		a.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}

// Delete removes a single key, swallowing store faults.
func (a *Aside) Delete(ctx context.Context, key string) {
	if err := a.store.Delete(ctx, key); err != nil {
		a.logger.WarnContext(ctx, "cache delete failed", "key", key, "error", err)
	}
}

// DeletePattern removes every key matching the glob pattern, swallowing
// store faults. Used for bulk invalidation sweeps.
func (a *Aside) DeletePattern(ctx context.Context, pattern string) {
	if err := a.store.DeletePattern(ctx, pattern); err != nil {
		a.logger.WarnContext(ctx, "cache pattern delete failed", "pattern", pattern, "error", err)
	}
}
