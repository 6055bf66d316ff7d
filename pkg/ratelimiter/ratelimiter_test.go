package ratelimiter_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrforge/qrforge/pkg/ratelimiter"
)

func TestNewBucket(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid configuration", func(t *testing.T) {
		t.Parallel()

		store := ratelimiter.NewMemoryStore()

		_, err := ratelimiter.NewBucket(store, ratelimiter.Config{
			Capacity: 0, RefillRate: 1, RefillInterval: time.Second,
		})
		require.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)

		_, err = ratelimiter.NewBucket(store, ratelimiter.Config{
			Capacity: 1, RefillRate: 0, RefillInterval: time.Second,
		})
		require.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)

		_, err = ratelimiter.NewBucket(nil, ratelimiter.Config{
			Capacity: 1, RefillRate: 1, RefillInterval: time.Second,
		})
		require.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	})
}

func TestBucketAllow(t *testing.T) {
	t.Parallel()

	cfg := ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Minute}

	t.Run("denies once the bucket is drained", func(t *testing.T) {
		t.Parallel()

		bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), cfg)
		require.NoError(t, err)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			result, err := bucket.Allow(ctx, "user-1")
			require.NoError(t, err)
			assert.True(t, result.Allowed(), "request %d should pass", i)
		}

		result, err := bucket.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, result.Allowed())
		assert.Negative(t, result.Remaining)
		assert.Positive(t, result.RetryAfter())
	})

	t.Run("keys are isolated", func(t *testing.T) {
		t.Parallel()

		bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), cfg)
		require.NoError(t, err)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_, err := bucket.Allow(ctx, "user-1")
			require.NoError(t, err)
		}

		result, err := bucket.Allow(ctx, "user-2")
		require.NoError(t, err)
		assert.True(t, result.Allowed())
	})

	t.Run("refills over time", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
		store := ratelimiter.NewMemoryStore(ratelimiter.WithClock(func() time.Time { return now }))
		bucket, err := ratelimiter.NewBucket(store, cfg)
		require.NoError(t, err)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_, err := bucket.Allow(ctx, "user-1")
			require.NoError(t, err)
		}
		result, err := bucket.Allow(ctx, "user-1")
		require.NoError(t, err)
		require.False(t, result.Allowed())

		now = now.Add(2 * time.Minute)
		result, err = bucket.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, result.Allowed(), "two refill intervals should restore two tokens")

		result, err = bucket.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, result.Allowed())

		result, err = bucket.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.False(t, result.Allowed())
	})

	t.Run("refill never exceeds capacity", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
		store := ratelimiter.NewMemoryStore(ratelimiter.WithClock(func() time.Time { return now }))
		bucket, err := ratelimiter.NewBucket(store, cfg)
		require.NoError(t, err)
		ctx := context.Background()

		_, err = bucket.Allow(ctx, "user-1")
		require.NoError(t, err)

		now = now.Add(24 * time.Hour)
		result, err := bucket.Status(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 3, result.Remaining)
	})

	t.Run("reset refills the bucket", func(t *testing.T) {
		t.Parallel()

		bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), cfg)
		require.NoError(t, err)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_, err := bucket.Allow(ctx, "user-1")
			require.NoError(t, err)
		}
		require.NoError(t, bucket.Reset(ctx, "user-1"))

		result, err := bucket.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, result.Allowed())
	})

	t.Run("rejects non-positive token counts", func(t *testing.T) {
		t.Parallel()

		bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), cfg)
		require.NoError(t, err)

		_, err = bucket.AllowN(context.Background(), "user-1", 0)
		require.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	newHandler := func(t *testing.T, capacity int, keyFunc ratelimiter.KeyFunc) http.Handler {
		t.Helper()
		bucket, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.Config{
			Capacity: capacity, RefillRate: 1, RefillInterval: time.Minute,
		})
		require.NoError(t, err)
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		return ratelimiter.Middleware(bucket, keyFunc)(next)
	}

	t.Run("limits by header key", func(t *testing.T) {
		t.Parallel()

		h := newHandler(t, 2, ratelimiter.ByHeader("X-User-Id"))

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-User-Id", "u1")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-Id", "u1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.Contains(t, rec.Body.String(), "rate_limited")
	})

	t.Run("falls back to client IP for anonymous requests", func(t *testing.T) {
		t.Parallel()

		h := newHandler(t, 1, ratelimiter.Composite(
			ratelimiter.ByHeader("X-User-Id"),
			ratelimiter.ByClientIP(),
		))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:4411"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("keyless requests pass through", func(t *testing.T) {
		t.Parallel()

		h := newHandler(t, 1, ratelimiter.ByHeader("X-User-Id"))

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}

func TestComposite(t *testing.T) {
	t.Parallel()

	t.Run("hashes long keys", func(t *testing.T) {
		t.Parallel()

		long := make([]byte, 0, 100)
		for i := 0; i < 100; i++ {
			long = append(long, 'a')
		}
		keyFunc := ratelimiter.Composite(ratelimiter.ByHeader("X-Key"))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Key", string(long))

		key := keyFunc(req)
		assert.NotEmpty(t, key)
		assert.LessOrEqual(t, len(key), 64)
	})
}
