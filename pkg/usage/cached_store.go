package usage

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/qrforge/qrforge/pkg/entitlement"
	"github.com/qrforge/qrforge/pkg/logger"
)

const (
	defaultSnapshotTTL = 30 * time.Second
	snapshotKeyPrefix  = "usage:snapshot:"
)

// CacheClient is the subset of the redis client the cache relies on.
// Declared locally so tests can substitute a fake.
type CacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CachedStore decorates a Store with a redis read-through cache for
// snapshots. Mutations pass through to the underlying store and then
// invalidate the cached snapshot, so the next read observes the new
// counters. Cache failures are logged and absorbed; the cache is a
// performance layer, never a correctness dependency.
type CachedStore struct {
	store Store
	rdb   CacheClient
	ttl   time.Duration
	log   *slog.Logger
}

// CachedStoreOption configures a CachedStore.
type CachedStoreOption func(*CachedStore)

// WithSnapshotTTL overrides the cache entry lifetime.
func WithSnapshotTTL(ttl time.Duration) CachedStoreOption {
	return func(c *CachedStore) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger for cache-degradation warnings.
func WithCacheLogger(log *slog.Logger) CachedStoreOption {
	return func(c *CachedStore) {
		if log != nil {
			c.log = log
		}
	}
}

// NewCachedStore wraps store with a redis snapshot cache.
func NewCachedStore(store Store, rdb CacheClient, opts ...CachedStoreOption) *CachedStore {
	c := &CachedStore{
		store: store,
		rdb:   rdb,
		ttl:   defaultSnapshotTTL,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func snapshotKey(userID uuid.UUID) string {
	return snapshotKeyPrefix + userID.String()
}

// Snapshot returns the cached snapshot when fresh, falling back to the
// underlying store on miss or cache failure.
func (c *CachedStore) Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	key := snapshotKey(userID)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return &snap, nil
		}
		// Corrupted entry: drop it and fall through to the store.
		_ = c.rdb.Del(ctx, key).Err()
	} else if err != redis.Nil {
		c.log.WarnContext(ctx, "snapshot cache read failed",
			logger.UserID(userID),
			logger.Error(err))
	}

	snap, err := c.store.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(snap); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.log.WarnContext(ctx, "snapshot cache write failed",
				logger.UserID(userID),
				logger.Error(err))
		}
	}
	return snap, nil
}

// Increment delegates to the underlying store and invalidates the
// cached snapshot on success.
func (c *CachedStore) Increment(ctx context.Context, userID uuid.UUID, feature entitlement.Feature, amount int64, limit entitlement.Quota) error {
	if err := c.store.Increment(ctx, userID, feature, amount, limit); err != nil {
		return err
	}
	c.invalidate(ctx, userID)
	return nil
}

// SetTier delegates to the underlying store and invalidates the cached
// snapshot on success.
func (c *CachedStore) SetTier(ctx context.Context, userID uuid.UUID, tier entitlement.Tier) error {
	if err := c.store.SetTier(ctx, userID, tier); err != nil {
		return err
	}
	c.invalidate(ctx, userID)
	return nil
}

func (c *CachedStore) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.rdb.Del(ctx, snapshotKey(userID)).Err(); err != nil {
		c.log.WarnContext(ctx, "snapshot cache invalidation failed",
			logger.UserID(userID),
			logger.Error(err))
	}
}
