package usage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/qrforge/qrforge/pkg/entitlement"
)

// Windows holds the counter values for one metered feature, resolved to
// the current UTC calendar windows. Total is cumulative and never resets.
type Windows struct {
	Daily   int64 `json:"daily"`
	Monthly int64 `json:"monthly"`
	Total   int64 `json:"total"`
}

// Quota converts the window counters to the daily/monthly pair the
// policy evaluation functions consume.
func (w Windows) Quota() entitlement.Quota {
	return entitlement.Quota{Daily: w.Daily, Monthly: w.Monthly}
}

// Snapshot is a point-in-time read of one user's tier and counters.
// Counters are already resolved to the current day/month windows: a
// counter last touched in a previous window reads as zero.
type Snapshot struct {
	UserID    uuid.UUID                       `json:"user_id"`
	Tier      entitlement.Tier                `json:"tier"`
	Usage     map[entitlement.Feature]Windows `json:"usage"`
	FetchedAt time.Time                       `json:"fetched_at"`
}

// Windows returns the counters for a feature, zero-valued when absent.
func (s *Snapshot) Windows(feature entitlement.Feature) Windows {
	if s == nil || s.Usage == nil {
		return Windows{}
	}
	return s.Usage[feature]
}

// Source reads user tier and usage counters from the persistence layer.
type Source interface {
	// Snapshot returns the user's current tier and window-resolved
	// counters. Returns ErrUserNotFound when no record exists.
	Snapshot(ctx context.Context, userID uuid.UUID) (*Snapshot, error)
}

// Store extends Source with the single mutating operation the tracker
// relies on. Increment must be atomic and conditional: the counter is
// incremented only if the resulting value stays within limit on both
// axes, otherwise the store rejects with ErrQuotaExceeded. The store,
// not the client-side pre-check, is the source of truth for quota
// enforcement.
type Store interface {
	Source

	// Increment adds amount to the feature counter for the user,
	// rolling the daily/monthly windows as needed. An axis set to
	// entitlement.Unlimited is not enforced. A missing user record is
	// provisioned at zero on the free tier.
	Increment(ctx context.Context, userID uuid.UUID, feature entitlement.Feature, amount int64, limit entitlement.Quota) error

	// SetTier updates the user's subscription tier, creating the record
	// if necessary. Called by billing webhooks and admin tooling only;
	// usage tracking never mutates the tier.
	SetTier(ctx context.Context, userID uuid.UUID, tier entitlement.Tier) error
}

// dayKey and monthKey name the UTC calendar windows counters live in.
// Window rollover is implicit: a stored key differing from the current
// one means the counter restarts from zero.
func dayKey(t time.Time) string   { return t.UTC().Format("2006-01-02") }
func monthKey(t time.Time) string { return t.UTC().Format("2006-01") }
