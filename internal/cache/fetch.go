package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Fetch returns the cached value for key if present and unexpired,
// otherwise invokes compute, stores its result, and returns it.
// Values are JSON round-tripped through the cache. Cache failures are
// logged and fall through to compute; a caching failure never fails
// the request. A nil cache always computes.
func Fetch[T any](ctx context.Context, c Cache, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	if c != nil {
		data, err := c.Get(ctx, key)
		if err != nil {
			slog.Warn("cache get failed, recomputing", "key", key, "error", err)
		} else if data != nil {
			var value T
			if err := json.Unmarshal(data, &value); err != nil {
				slog.Warn("cache entry undecodable, recomputing", "key", key, "error", err)
			} else {
				return value, nil
			}
		}
	}

	value, err := compute(ctx)
	if err != nil {
		return value, err
	}

	if c != nil {
		data, err := json.Marshal(value)
		if err != nil {
			slog.Warn("cache value not serializable", "key", key, "error", err)
			return value, nil
		}
		if err := c.Set(ctx, key, data, ttl); err != nil {
			slog.Warn("cache set failed", "key", key, "error", err)
		}
	}

	return value, nil
}
