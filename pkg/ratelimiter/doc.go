// Package ratelimiter provides token bucket rate limiting for the
// public generation API, with Redis-backed state shared across
// instances and an in-memory store for tests and single-node runs.
//
// A bucket holds Capacity tokens and gains RefillRate tokens every
// RefillInterval. Each request consumes one token; an empty bucket
// answers 429 with Retry-After and X-RateLimit-* headers.
//
// # Quick Start
//
//	store := ratelimiter.NewRedisStore(rdb)
//	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       60,
//		RefillRate:     60,
//		RefillInterval: time.Minute,
//	})
//	if err != nil {
//		return err
//	}
//
//	r.Use(ratelimiter.Middleware(bucket, ratelimiter.Composite(
//		ratelimiter.ByHeader("X-User-Id"),
//		ratelimiter.ByClientIP(),
//	)))
//
// Authenticated traffic is keyed per user, anonymous traffic per
// client IP. On a store failure the middleware fails open: limiting
// protects capacity and must not become an outage of its own.
package ratelimiter
