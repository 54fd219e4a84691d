package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyCache struct {
	*MemoryCache
	getErr error
	setErr error
}

func (c *flakyCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.MemoryCache.Get(ctx, key)
}

func (c *flakyCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	return c.MemoryCache.Set(ctx, key, value, expiration)
}

func TestFetch_ComputesOnMiss(t *testing.T) {
	c := NewMemoryCache()
	calls := 0

	value, err := Fetch(context.Background(), c, "key", time.Minute, func(ctx context.Context) (string, error) {
		calls++
		return "computed", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "computed", value)
	assert.Equal(t, 1, calls)
}

func TestFetch_ReturnsCachedOnHit(t *testing.T) {
	c := NewMemoryCache()
	calls := 0
	compute := func(ctx context.Context) (string, error) {
		calls++
		return "computed", nil
	}

	first, err := Fetch(context.Background(), c, "key", time.Minute, compute)
	require.NoError(t, err)
	second, err := Fetch(context.Background(), c, "key", time.Minute, compute)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestFetch_NilCacheAlwaysComputes(t *testing.T) {
	calls := 0
	compute := func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		value, err := Fetch(context.Background(), nil, "key", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, 42, value)
	}
	assert.Equal(t, 3, calls)
}

func TestFetch_ComputeError(t *testing.T) {
	c := NewMemoryCache()
	computeErr := errors.New("upstream down")

	_, err := Fetch(context.Background(), c, "key", time.Minute, func(ctx context.Context) (string, error) {
		return "", computeErr
	})

	assert.ErrorIs(t, err, computeErr)

	// A failed compute must not poison the cache
	data, err := c.Get(context.Background(), "key")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestFetch_GetFailureFallsThrough(t *testing.T) {
	c := &flakyCache{MemoryCache: NewMemoryCache(), getErr: errors.New("backend gone")}

	value, err := Fetch(context.Background(), c, "key", time.Minute, func(ctx context.Context) (string, error) {
		return "computed", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "computed", value)
}

func TestFetch_SetFailureIsNotFatal(t *testing.T) {
	c := &flakyCache{MemoryCache: NewMemoryCache(), setErr: errors.New("backend gone")}

	value, err := Fetch(context.Background(), c, "key", time.Minute, func(ctx context.Context) (string, error) {
		return "computed", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "computed", value)
}

func TestFetch_StructRoundTrip(t *testing.T) {
	type payload struct {
		Name  string   `json:"name"`
		Count int      `json:"count"`
		Tags  []string `json:"tags"`
	}

	c := NewMemoryCache()
	want := payload{Name: "teardrop", Count: 3, Tags: []string{"trip-hop"}}

	first, err := Fetch(context.Background(), c, "key", time.Minute, func(ctx context.Context) (payload, error) {
		return want, nil
	})
	require.NoError(t, err)

	second, err := Fetch(context.Background(), c, "key", time.Minute, func(ctx context.Context) (payload, error) {
		t.Error("compute must not run on a warm cache")
		return payload{}, nil
	})
	require.NoError(t, err)

	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
}
