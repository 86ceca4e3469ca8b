package customer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFragmentCacheStoresEntryPerVariant(t *testing.T) {
	cache := NewFragmentCache(time.Minute)
	ctx := context.Background()
	calls := 0
	render := func() (string, error) {
		calls++
		return "html", nil
	}

	val1, err := cache.GetOrRender(ctx, "key", "en", render)
	require.NoError(t, err)
	val2, err := cache.GetOrRender(ctx, "key", "en", render)
	require.NoError(t, err)
	_, err = cache.GetOrRender(ctx, "key", "es", render)
	require.NoError(t, err)

	assert.Equal(t, "html", val1)
	assert.Equal(t, val1, val2)
	assert.Equal(t, 2, calls)
}

func TestFragmentCacheExpires(t *testing.T) {
	cache := NewFragmentCache(2 * time.Millisecond)
	calls := 0
	render := func() (string, error) {
		calls++
		return "fresh", nil
	}

	_, err := cache.GetOrRender(context.Background(), "key", "", render)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = cache.GetOrRender(context.Background(), "key", "", render)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestFragmentCacheSkipsEmptyAndErrors(t *testing.T) {
	cache := NewFragmentCache(time.Minute)
	ctx := context.Background()
	calls := 0
	empty := func() (string, error) {
		calls++
		return "", nil
	}
	_, _ = cache.GetOrRender(ctx, "key", "", empty)
	_, _ = cache.GetOrRender(ctx, "key", "", empty)
	assert.Equal(t, 2, calls)

	boom := errors.New("boom")
	_, err := cache.GetOrRender(ctx, "key", "", func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
}

func TestFragmentCacheStoresWhitespaceFragment(t *testing.T) {
	cache := NewFragmentCache(time.Minute)
	ctx := context.Background()
	calls := 0
	blank := func() (string, error) {
		calls++
		return "  \n", nil
	}
	first, _ := cache.GetOrRender(ctx, "key", "", blank)
	second, _ := cache.GetOrRender(ctx, "key", "", blank)
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestFragmentCacheInvalidateDropsAllVariants(t *testing.T) {
	cache := NewFragmentCache(time.Minute)
	ctx := context.Background()
	calls := 0
	render := func() (string, error) {
		calls++
		return "html", nil
	}
	_, _ = cache.GetOrRender(ctx, "key", "en", render)
	_, _ = cache.GetOrRender(ctx, "key", "es", render)
	require.NoError(t, cache.Invalidate(ctx, "key"))
	_, _ = cache.GetOrRender(ctx, "key", "en", render)
	_, _ = cache.GetOrRender(ctx, "key", "es", render)
	assert.Equal(t, 4, calls)
}

func TestRedisCacheDegradesToRenderWhenUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewRedisCache(client, time.Minute)

	html, err := cache.GetOrRender(context.Background(), "key", "en", func() (string, error) {
		return "rendered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "rendered", html)
}

func TestRedisCacheWithoutTTLRendersDirectly(t *testing.T) {
	cache := NewRedisCache(nil, 0)
	calls := 0
	for i := 0; i < 2; i++ {
		_, err := cache.GetOrRender(context.Background(), "key", "", func() (string, error) {
			calls++
			return "x", nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
	assert.NoError(t, cache.Invalidate(context.Background(), "key"))
}
