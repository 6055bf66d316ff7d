package entitlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qrforge/qrforge/pkg/entitlement"
)

func TestHasAccess(t *testing.T) {
	t.Parallel()

	policy := entitlement.DefaultPolicy()

	tests := []struct {
		name    string
		tier    entitlement.Tier
		feature entitlement.Feature
		want    bool
	}{
		{"free can generate qr codes", entitlement.TierFree, entitlement.FeatureQRCodesGenerated, true},
		{"free cannot bulk generate", entitlement.TierFree, entitlement.FeatureBulkGenerations, false},
		{"free has no svg download", entitlement.TierFree, entitlement.FeatureSVGDownload, false},
		{"pro can bulk generate", entitlement.TierPro, entitlement.FeatureBulkGenerations, true},
		{"pro has svg download", entitlement.TierPro, entitlement.FeatureSVGDownload, true},
		{"pro has no custom branding", entitlement.TierPro, entitlement.FeatureCustomBranding, false},
		{"business has everything", entitlement.TierBusiness, entitlement.FeatureCustomBranding, true},
		{"cap of zero means locked", entitlement.TierFree, entitlement.FeatureMaxBulkItems, false},
		{"positive cap means unlocked", entitlement.TierPro, entitlement.FeatureMaxBulkItems, true},
		{"unknown feature is denied", entitlement.TierBusiness, entitlement.Feature("bogus"), false},
		{"unknown tier is denied", entitlement.Tier("platinum"), entitlement.FeatureQRCodesGenerated, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, policy.HasAccess(tt.tier, tt.feature))
		})
	}
}

func TestFeatureLimit(t *testing.T) {
	t.Parallel()

	policy := entitlement.DefaultPolicy()

	assert.Equal(t, int64(50), policy.FeatureLimit(entitlement.TierPro, entitlement.FeatureMaxBulkItems))
	assert.Equal(t, int64(5), policy.FeatureLimit(entitlement.TierFree, entitlement.FeatureQRCodesGenerated))
	assert.Equal(t, int64(0), policy.FeatureLimit(entitlement.TierPro, entitlement.FeatureNoWatermark))
	assert.Equal(t, int64(0), policy.FeatureLimit(entitlement.TierFree, entitlement.Feature("bogus")))
}

func TestRemaining(t *testing.T) {
	t.Parallel()

	policy := entitlement.DefaultPolicy()

	t.Run("metered remaining", func(t *testing.T) {
		t.Parallel()

		r := policy.Remaining(entitlement.TierFree, entitlement.FeatureQRCodesGenerated,
			entitlement.Quota{Daily: 2, Monthly: 10})
		assert.Equal(t, entitlement.RemainingMetered, r.Kind)
		assert.Equal(t, int64(3), r.Daily)
		assert.Equal(t, int64(90), r.Monthly)
	})

	t.Run("never negative", func(t *testing.T) {
		t.Parallel()

		r := policy.Remaining(entitlement.TierFree, entitlement.FeatureQRCodesGenerated,
			entitlement.Quota{Daily: 50, Monthly: 500})
		assert.Equal(t, int64(0), r.Daily)
		assert.Equal(t, int64(0), r.Monthly)
	})

	t.Run("permission features skip usage math", func(t *testing.T) {
		t.Parallel()

		r := policy.Remaining(entitlement.TierPro, entitlement.FeatureNoWatermark,
			entitlement.Quota{Daily: 0, Monthly: 0})
		assert.Equal(t, entitlement.RemainingNotApplicable, r.Kind)
		assert.False(t, r.Exhausted())
	})

	t.Run("unlimited quota", func(t *testing.T) {
		t.Parallel()

		r := policy.Remaining(entitlement.TierBusiness, entitlement.FeatureQRCodesGenerated,
			entitlement.Quota{Daily: 1_000_000, Monthly: 1_000_000})
		assert.Equal(t, entitlement.RemainingUnlimited, r.Kind)
		assert.False(t, r.Exhausted())
	})

	t.Run("unknown feature fails closed", func(t *testing.T) {
		t.Parallel()

		r := policy.Remaining(entitlement.TierPro, entitlement.Feature("bogus"), entitlement.Quota{})
		assert.Equal(t, entitlement.RemainingMetered, r.Kind)
		assert.True(t, r.Exhausted())
	})
}

func TestReachedLimit(t *testing.T) {
	t.Parallel()

	policy := entitlement.DefaultPolicy()

	t.Run("boundary exactness", func(t *testing.T) {
		t.Parallel()

		assert.True(t, policy.ReachedLimit(entitlement.TierFree, entitlement.FeatureQRCodesGenerated,
			entitlement.Quota{Daily: 5, Monthly: 5}))
		assert.False(t, policy.ReachedLimit(entitlement.TierFree, entitlement.FeatureQRCodesGenerated,
			entitlement.Quota{Daily: 4, Monthly: 4}))
	})

	t.Run("monthly exhaustion blocks despite daily budget", func(t *testing.T) {
		t.Parallel()

		assert.True(t, policy.ReachedLimit(entitlement.TierFree, entitlement.FeatureQRCodesGenerated,
			entitlement.Quota{Daily: 0, Monthly: 100}))
	})
}

func TestWithinLimit(t *testing.T) {
	t.Parallel()

	policy := entitlement.DefaultPolicy()

	t.Run("respects amount", func(t *testing.T) {
		t.Parallel()

		usage := entitlement.Quota{Daily: 0, Monthly: 0}
		assert.True(t, policy.WithinLimit(entitlement.TierFree, entitlement.FeatureQRCodesGenerated, usage, 5))
		assert.False(t, policy.WithinLimit(entitlement.TierFree, entitlement.FeatureQRCodesGenerated, usage, 6))
	})

	t.Run("non-positive amounts never fit", func(t *testing.T) {
		t.Parallel()

		assert.False(t, policy.WithinLimit(entitlement.TierPro, entitlement.FeatureQRCodesGenerated,
			entitlement.Quota{}, 0))
		assert.False(t, policy.WithinLimit(entitlement.TierPro, entitlement.FeatureQRCodesGenerated,
			entitlement.Quota{}, -3))
	})

	t.Run("permission features always fit", func(t *testing.T) {
		t.Parallel()

		assert.True(t, policy.WithinLimit(entitlement.TierPro, entitlement.FeaturePDFDownload,
			entitlement.Quota{}, 1))
	})

	t.Run("unlimited always fits", func(t *testing.T) {
		t.Parallel()

		assert.True(t, policy.WithinLimit(entitlement.TierBusiness, entitlement.FeatureQRCodesGenerated,
			entitlement.Quota{Daily: 1 << 40, Monthly: 1 << 40}, 1_000_000))
	})
}
