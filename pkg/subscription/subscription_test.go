package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrforge/qrforge/pkg/entitlement"
	"github.com/qrforge/qrforge/pkg/subscription"
)

func TestSubscription_TrialDaysRemainingAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("mid trial rounds partial days up", func(t *testing.T) {
		t.Parallel()

		ends := now.Add(36 * time.Hour)
		sub := &subscription.Subscription{
			Status:      subscription.StatusTrialing,
			TrialEndsAt: &ends,
		}
		assert.Equal(t, 2, sub.TrialDaysRemainingAt(now))
	})

	t.Run("expired trial has zero days", func(t *testing.T) {
		t.Parallel()

		ends := now.Add(-time.Hour)
		sub := &subscription.Subscription{
			Status:      subscription.StatusTrialing,
			TrialEndsAt: &ends,
		}
		assert.Equal(t, 0, sub.TrialDaysRemainingAt(now))
	})

	t.Run("not trialing", func(t *testing.T) {
		t.Parallel()

		sub := &subscription.Subscription{Status: subscription.StatusActive}
		assert.Equal(t, 0, sub.TrialDaysRemainingAt(now))
	})
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	t.Run("save and get", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		userID := uuid.New()

		require.NoError(t, store.Save(context.Background(), &subscription.Subscription{
			UserID: userID,
			Tier:   entitlement.TierPro,
			Status: subscription.StatusActive,
		}))

		sub, err := store.Get(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, entitlement.TierPro, sub.Tier)
	})

	t.Run("missing subscription", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		_, err := store.Get(context.Background(), uuid.New())
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})

	t.Run("get returns a copy", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		userID := uuid.New()
		require.NoError(t, store.Save(context.Background(), &subscription.Subscription{
			UserID: userID,
			Tier:   entitlement.TierPro,
			Status: subscription.StatusActive,
		}))

		sub, err := store.Get(context.Background(), userID)
		require.NoError(t, err)
		sub.Tier = entitlement.TierBusiness

		again, err := store.Get(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, entitlement.TierPro, again.Tier)
	})
}
