package usage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qrforge/qrforge/pkg/entitlement"
)

// counter is one metered feature's state. Window keys record which
// calendar day/month the daily/monthly values belong to.
type counter struct {
	day     string
	month   string
	daily   int64
	monthly int64
	total   int64
}

type userRecord struct {
	tier     entitlement.Tier
	counters map[entitlement.Feature]*counter
}

// MemoryStore is an in-memory Store for tests and local development.
// Increment is atomic under the store mutex, mirroring the conditional
// semantics the mongo store implements server-side.
type MemoryStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*userRecord
	now   func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryClock overrides the time source, for window-rollover tests.
func WithMemoryClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		users: make(map[uuid.UUID]*userRecord),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the user's tier and window-resolved counters.
func (s *MemoryStore) Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}

	now := s.now().UTC()
	day, month := dayKey(now), monthKey(now)

	snap := &Snapshot{
		UserID:    userID,
		Tier:      rec.tier,
		Usage:     make(map[entitlement.Feature]Windows, len(rec.counters)),
		FetchedAt: now,
	}
	for feature, c := range rec.counters {
		w := Windows{Total: c.total}
		if c.day == day {
			w.Daily = c.daily
		}
		if c.month == month {
			w.Monthly = c.monthly
		}
		snap.Usage[feature] = w
	}
	return snap, nil
}

// Increment atomically adds amount to the feature counter, rolling the
// calendar windows first, and rejects with ErrQuotaExceeded when the
// result would exceed a limited axis. A missing user is provisioned at
// zero on the free tier.
func (s *MemoryStore) Increment(ctx context.Context, userID uuid.UUID, feature entitlement.Feature, amount int64, limit entitlement.Quota) error {
	if amount <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.provision(userID)
	c, ok := rec.counters[feature]
	if !ok {
		c = &counter{}
		rec.counters[feature] = c
	}

	now := s.now().UTC()
	day, month := dayKey(now), monthKey(now)
	if c.day != day {
		c.day, c.daily = day, 0
	}
	if c.month != month {
		c.month, c.monthly = month, 0
	}

	if limit.Daily != entitlement.Unlimited && c.daily+amount > limit.Daily {
		return ErrQuotaExceeded
	}
	if limit.Monthly != entitlement.Unlimited && c.monthly+amount > limit.Monthly {
		return ErrQuotaExceeded
	}

	c.daily += amount
	c.monthly += amount
	c.total += amount
	return nil
}

// SetTier updates the user's tier, creating the record if needed.
func (s *MemoryStore) SetTier(ctx context.Context, userID uuid.UUID, tier entitlement.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.provision(userID)
	rec.tier = entitlement.ParseTier(string(tier))
	return nil
}

func (s *MemoryStore) provision(userID uuid.UUID) *userRecord {
	rec, ok := s.users[userID]
	if !ok {
		rec = &userRecord{
			tier:     entitlement.TierFree,
			counters: make(map[entitlement.Feature]*counter),
		}
		s.users[userID] = rec
	}
	return rec
}
