package usage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/qrforge/qrforge/pkg/entitlement"
	"github.com/qrforge/qrforge/pkg/logger"
)

// Tracker binds the pure policy evaluation functions to one
// authenticated user's live tier and usage counters.
//
// The snapshot is fetched once at construction and refreshed only on an
// explicit Refresh call. Track deliberately does not update the cached
// snapshot after a successful increment: the store is the source of
// truth, and the local pre-check is a UX short-circuit that avoids
// round trips for obviously-blocked requests. Two rapid Track calls can
// therefore both pass the pre-check against the same stale snapshot;
// the store's atomic conditional increment is what actually enforces
// the limit.
//
// A Tracker is not safe for concurrent use.
type Tracker struct {
	policy   entitlement.Policy
	store    Store
	userID   uuid.UUID
	snapshot *Snapshot
	loadErr  error
	log      *slog.Logger
	now      func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithLogger sets the logger used for degraded-mode warnings.
func WithLogger(log *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker creates a tracker for the given user and loads its
// snapshot. A failed or missing read degrades to the free tier with
// zeroed counters instead of returning an error: the data layer being
// unavailable is treated as "new/free user" so the caller keeps
// working, possibly under-permissioned. The degradation is retrievable
// via Err.
//
// A uuid.Nil userID produces an unauthenticated tracker: evaluation
// works against the free tier but Track always fails.
func NewTracker(ctx context.Context, policy entitlement.Policy, store Store, userID uuid.UUID, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		policy: policy,
		store:  store,
		userID: userID,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	if userID != uuid.Nil {
		t.load(ctx)
	} else {
		t.snapshot = t.fallbackSnapshot()
	}
	return t
}

func (t *Tracker) load(ctx context.Context) {
	snap, err := t.store.Snapshot(ctx, t.userID)
	if err != nil {
		// A missing record is a new user on the free tier, not a
		// degraded read.
		if errors.Is(err, ErrUserNotFound) {
			t.loadErr = nil
			t.snapshot = t.fallbackSnapshot()
			return
		}
		t.log.WarnContext(ctx, "usage snapshot read failed, degrading to free tier",
			logger.UserID(t.userID),
			logger.Error(err))
		t.loadErr = errors.Join(ErrSnapshotFailed, err)
		t.snapshot = t.fallbackSnapshot()
		return
	}
	t.loadErr = nil
	t.snapshot = snap
}

func (t *Tracker) fallbackSnapshot() *Snapshot {
	return &Snapshot{
		UserID:    t.userID,
		Tier:      entitlement.TierFree,
		Usage:     make(map[entitlement.Feature]Windows),
		FetchedAt: t.now().UTC(),
	}
}

// Authenticated reports whether the tracker is bound to a real user.
func (t *Tracker) Authenticated() bool { return t.userID != uuid.Nil }

// Tier returns the tier the tracker evaluates against.
func (t *Tracker) Tier() entitlement.Tier { return t.snapshot.Tier }

// Err returns the snapshot load error, if the tracker is running in
// degraded free-tier mode, and nil otherwise.
func (t *Tracker) Err() error { return t.loadErr }

// CanUse reports whether the user can currently use the feature.
// Permission features delegate to the policy table; metered features
// additionally require remaining budget on both axes.
func (t *Tracker) CanUse(feature entitlement.Feature) bool {
	if !feature.Valid() {
		return false
	}
	if !t.policy.HasAccess(t.snapshot.Tier, feature) {
		return false
	}
	if !feature.Metered() {
		return true
	}
	return !t.policy.ReachedLimit(t.snapshot.Tier, feature, t.snapshot.Windows(feature).Quota())
}

// Remaining returns the tri-state remaining budget for the feature
// against the cached snapshot.
func (t *Tracker) Remaining(feature entitlement.Feature) entitlement.Remaining {
	return t.policy.Remaining(t.snapshot.Tier, feature, t.snapshot.Windows(feature).Quota())
}

// RemainingDaily returns the remaining daily count for a metered
// feature. Unlimited features return entitlement.Unlimited and
// unrecognized features return 0.
func (t *Tracker) RemainingDaily(feature entitlement.Feature) int64 {
	if !feature.Valid() {
		return 0
	}
	r := t.Remaining(feature)
	switch r.Kind {
	case entitlement.RemainingUnlimited, entitlement.RemainingNotApplicable:
		return entitlement.Unlimited
	}
	return r.Daily
}

// WithinLimit reports whether a request for amount more units fits the
// remaining budget in the cached snapshot.
func (t *Tracker) WithinLimit(feature entitlement.Feature, amount int64) bool {
	return t.policy.WithinLimit(t.snapshot.Tier, feature, t.snapshot.Windows(feature).Quota(), amount)
}

// Track records amount units of usage for a metered feature. It is the
// only method with side effects. The local pre-check runs against the
// cached snapshot and exists solely to skip futile round trips; the
// store re-validates atomically and its verdict wins.
//
// All failures are returned as structured sentinel errors
// (ErrNotAuthenticated, ErrUnknownFeature, ErrNotMetered,
// ErrQuotaExceeded, ErrTrackingFailed); none of the first three reach
// the store.
func (t *Tracker) Track(ctx context.Context, feature entitlement.Feature, amount int64) error {
	if !t.Authenticated() {
		return ErrNotAuthenticated
	}
	if !feature.Valid() {
		return ErrUnknownFeature
	}
	if !feature.Metered() {
		return ErrNotMetered
	}
	if amount <= 0 {
		amount = 1
	}

	if !t.WithinLimit(feature, amount) {
		return ErrQuotaExceeded
	}

	limit := entitlement.Quota{Daily: entitlement.Unlimited, Monthly: entitlement.Unlimited}
	if ent, ok := t.policy.Entitlement(t.snapshot.Tier, feature); ok && ent.Kind == entitlement.KindMetered {
		limit = ent.Quota
	}

	if err := t.store.Increment(ctx, t.userID, feature, amount, limit); err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			return err
		}
		return errors.Join(ErrTrackingFailed, err)
	}

	// The cached snapshot is intentionally left stale; see type docs.
	return nil
}

// Refresh reloads the snapshot from the store.
func (t *Tracker) Refresh(ctx context.Context) error {
	if !t.Authenticated() {
		return ErrNotAuthenticated
	}
	t.load(ctx)
	return t.loadErr
}
