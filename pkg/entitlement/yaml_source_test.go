package entitlement_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrforge/qrforge/pkg/entitlement"
)

const validPolicyYAML = `
tiers:
  free:
    qr_codes_generated: {daily: 5, monthly: 100}
    barcodes_generated: {daily: 5, monthly: 100}
    bulk_generations: {daily: 0, monthly: 0}
    ai_customizations: {daily: 0, monthly: 0}
    no_watermark: false
    svg_download: false
    pdf_download: false
    qr_code_tracking: false
    enhanced_barcodes: false
    file_uploads: false
    analytics: false
    custom_branding: false
    api_access: false
    max_bulk_items: 0
    max_team_members: 1
  pro:
    qr_codes_generated: {daily: 100, monthly: 2000}
    barcodes_generated: {daily: 100, monthly: 2000}
    bulk_generations: {daily: 10, monthly: 100}
    ai_customizations: {daily: 20, monthly: 200}
    no_watermark: true
    svg_download: true
    pdf_download: true
    qr_code_tracking: true
    enhanced_barcodes: true
    file_uploads: true
    analytics: true
    custom_branding: false
    api_access: false
    max_bulk_items: 50
    max_team_members: 3
  business:
    qr_codes_generated: {daily: -1, monthly: -1}
    barcodes_generated: {daily: -1, monthly: -1}
    bulk_generations: {daily: 100, monthly: 1000}
    ai_customizations: {daily: 200, monthly: 2000}
    no_watermark: true
    svg_download: true
    pdf_download: true
    qr_code_tracking: true
    enhanced_barcodes: true
    file_uploads: true
    analytics: true
    custom_branding: true
    api_access: true
    max_bulk_items: 200
    max_team_members: 10
`

func TestLoadPolicy(t *testing.T) {
	t.Parallel()

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()

		policy, err := entitlement.LoadPolicy(strings.NewReader(validPolicyYAML))
		require.NoError(t, err)

		assert.True(t, policy.HasAccess(entitlement.TierPro, entitlement.FeatureSVGDownload))
		assert.Equal(t, int64(50), policy.FeatureLimit(entitlement.TierPro, entitlement.FeatureMaxBulkItems))

		ent, ok := policy.Entitlement(entitlement.TierBusiness, entitlement.FeatureQRCodesGenerated)
		require.True(t, ok)
		assert.Equal(t, entitlement.KindMetered, ent.Kind)
		assert.Equal(t, entitlement.Unlimited, ent.Quota.Daily)
	})

	t.Run("unknown feature rejected", func(t *testing.T) {
		t.Parallel()

		_, err := entitlement.LoadPolicy(strings.NewReader("tiers:\n  free:\n    shapeshifting: true\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, entitlement.ErrUnknownFeature)
	})

	t.Run("unknown tier rejected", func(t *testing.T) {
		t.Parallel()

		_, err := entitlement.LoadPolicy(strings.NewReader("tiers:\n  platinum:\n    analytics: true\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, entitlement.ErrUnknownTier)
	})

	t.Run("incomplete table rejected", func(t *testing.T) {
		t.Parallel()

		_, err := entitlement.LoadPolicy(strings.NewReader("tiers:\n  free:\n    analytics: true\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, entitlement.ErrIncompletePolicy)
	})

	t.Run("malformed yaml rejected", func(t *testing.T) {
		t.Parallel()

		_, err := entitlement.LoadPolicy(strings.NewReader("tiers: ["))
		require.Error(t, err)
		assert.ErrorIs(t, err, entitlement.ErrInvalidPolicy)
	})
}
