package entitlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrforge/qrforge/pkg/entitlement"
)

func TestDefaultPolicyValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, entitlement.DefaultPolicy().Validate())
}

func TestPolicyValidate(t *testing.T) {
	t.Parallel()

	t.Run("missing tier", func(t *testing.T) {
		t.Parallel()

		policy := entitlement.DefaultPolicy()
		delete(policy, entitlement.TierPro)

		err := policy.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, entitlement.ErrIncompletePolicy)
	})

	t.Run("missing feature entry", func(t *testing.T) {
		t.Parallel()

		policy := entitlement.DefaultPolicy()
		delete(policy[entitlement.TierFree], entitlement.FeatureAnalytics)

		err := policy.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, entitlement.ErrIncompletePolicy)
	})

	t.Run("permission revoked on higher tier", func(t *testing.T) {
		t.Parallel()

		policy := entitlement.DefaultPolicy()
		policy[entitlement.TierBusiness][entitlement.FeatureAnalytics] = entitlement.Permission(false)

		err := policy.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, entitlement.ErrNonMonotonicPolicy)
	})

	t.Run("quota reduced on higher tier", func(t *testing.T) {
		t.Parallel()

		policy := entitlement.DefaultPolicy()
		policy[entitlement.TierPro][entitlement.FeatureQRCodesGenerated] = entitlement.Metered(1, 10)

		err := policy.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, entitlement.ErrNonMonotonicPolicy)
	})

	t.Run("unlimited to limited is a reduction", func(t *testing.T) {
		t.Parallel()

		policy := entitlement.DefaultPolicy()
		policy[entitlement.TierPro][entitlement.FeatureQRCodesGenerated] = entitlement.Metered(entitlement.Unlimited, entitlement.Unlimited)

		err := policy.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, entitlement.ErrNonMonotonicPolicy)
	})

	t.Run("kind change between tiers", func(t *testing.T) {
		t.Parallel()

		policy := entitlement.DefaultPolicy()
		policy[entitlement.TierPro][entitlement.FeatureAnalytics] = entitlement.Cap(10)

		err := policy.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, entitlement.ErrInvalidPolicy)
	})
}

// Monotonicity across every feature and adjacent tier pair: access
// granted to a lower tier is never missing from a higher one.
func TestTierMonotonicity(t *testing.T) {
	t.Parallel()

	policy := entitlement.DefaultPolicy()
	tiers := entitlement.Tiers()

	for i := 1; i < len(tiers); i++ {
		lower, higher := tiers[i-1], tiers[i]
		for _, feature := range entitlement.Features() {
			if policy.HasAccess(lower, feature) {
				assert.True(t, policy.HasAccess(higher, feature),
					"tier %s lost access to %s granted to %s", higher, feature, lower)
			}
		}
	}
}

func TestTierOrdering(t *testing.T) {
	t.Parallel()

	assert.True(t, entitlement.TierBusiness.AtLeast(entitlement.TierPro))
	assert.True(t, entitlement.TierPro.AtLeast(entitlement.TierFree))
	assert.False(t, entitlement.TierFree.AtLeast(entitlement.TierPro))
	assert.True(t, entitlement.TierFree.AtLeast(entitlement.TierFree))
}

func TestParseTier(t *testing.T) {
	t.Parallel()

	assert.Equal(t, entitlement.TierPro, entitlement.ParseTier("pro"))
	assert.Equal(t, entitlement.TierBusiness, entitlement.ParseTier("business"))
	assert.Equal(t, entitlement.TierFree, entitlement.ParseTier(""))
	assert.Equal(t, entitlement.TierFree, entitlement.ParseTier("enterprise"))
}

func TestFeatureVocabulary(t *testing.T) {
	t.Parallel()

	assert.True(t, entitlement.FeatureQRCodesGenerated.Valid())
	assert.True(t, entitlement.FeatureQRCodesGenerated.Metered())
	assert.True(t, entitlement.FeatureNoWatermark.Valid())
	assert.False(t, entitlement.FeatureNoWatermark.Metered())
	assert.False(t, entitlement.Feature("notARealFeature").Valid())
}
