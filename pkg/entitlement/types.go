package entitlement

// Tier is a named subscription level controlling feature access and quotas.
type Tier string

const (
	TierFree     Tier = "free"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
)

// Tiers returns all known tiers in ascending entitlement order.
func Tiers() []Tier {
	return []Tier{TierFree, TierPro, TierBusiness}
}

// Level returns the tier's position in the entitlement order.
// Unknown tiers are treated as free (level 0) so a corrupted or missing
// tier value degrades to the least-privileged plan instead of failing.
func (t Tier) Level() int {
	switch t {
	case TierPro:
		return 1
	case TierBusiness:
		return 2
	default:
		return 0
	}
}

// Valid reports whether the tier is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierBusiness:
		return true
	}
	return false
}

// AtLeast reports whether the tier grants at least the entitlement level of other.
func (t Tier) AtLeast(other Tier) bool {
	return t.Level() >= other.Level()
}

// ParseTier normalizes an externally sourced tier string.
// Anything unrecognized maps to TierFree.
func ParseTier(s string) Tier {
	t := Tier(s)
	if !t.Valid() {
		return TierFree
	}
	return t
}

// Feature identifies a gated capability. The set is closed: callers
// constructing features from untyped input must validate with Valid.
type Feature string

// Metered features: usage is counted against daily/monthly budgets.
const (
	FeatureQRCodesGenerated  Feature = "qr_codes_generated"
	FeatureBarcodesGenerated Feature = "barcodes_generated"
	FeatureBulkGenerations   Feature = "bulk_generations"
	FeatureAICustomizations  Feature = "ai_customizations"
)

// Permission features: simply on or off for a tier.
const (
	FeatureNoWatermark      Feature = "no_watermark"
	FeatureSVGDownload      Feature = "svg_download"
	FeaturePDFDownload      Feature = "pdf_download"
	FeatureQRCodeTracking   Feature = "qr_code_tracking"
	FeatureEnhancedBarcodes Feature = "enhanced_barcodes"
	FeatureFileUploads      Feature = "file_uploads"
	FeatureAnalytics        Feature = "analytics"
	FeatureCustomBranding   Feature = "custom_branding"
	FeatureAPIAccess        Feature = "api_access"
)

// Cap features: single numeric maxima, not metered over time.
const (
	FeatureMaxBulkItems   Feature = "max_bulk_items"
	FeatureMaxTeamMembers Feature = "max_team_members"
)

// MeteredFeatures returns the features whose usage is counted.
func MeteredFeatures() []Feature {
	return []Feature{
		FeatureQRCodesGenerated,
		FeatureBarcodesGenerated,
		FeatureBulkGenerations,
		FeatureAICustomizations,
	}
}

// PermissionFeatures returns the pure on/off features.
func PermissionFeatures() []Feature {
	return []Feature{
		FeatureNoWatermark,
		FeatureSVGDownload,
		FeaturePDFDownload,
		FeatureQRCodeTracking,
		FeatureEnhancedBarcodes,
		FeatureFileUploads,
		FeatureAnalytics,
		FeatureCustomBranding,
		FeatureAPIAccess,
	}
}

// CapFeatures returns the numeric-maximum features.
func CapFeatures() []Feature {
	return []Feature{
		FeatureMaxBulkItems,
		FeatureMaxTeamMembers,
	}
}

// Features returns every known feature.
func Features() []Feature {
	all := MeteredFeatures()
	all = append(all, PermissionFeatures()...)
	all = append(all, CapFeatures()...)
	return all
}

// Valid reports whether the feature is part of the closed vocabulary.
func (f Feature) Valid() bool {
	for _, known := range Features() {
		if f == known {
			return true
		}
	}
	return false
}

// Metered reports whether the feature's usage is counted against quotas.
func (f Feature) Metered() bool {
	switch f {
	case FeatureQRCodesGenerated, FeatureBarcodesGenerated, FeatureBulkGenerations, FeatureAICustomizations:
		return true
	}
	return false
}

const (
	// Unlimited indicates no limit for a quota axis or cap (-1 for SQL compatibility).
	Unlimited int64 = -1
)

// Quota is a daily/monthly budget pair. Either axis may be Unlimited.
type Quota struct {
	Daily   int64 `yaml:"daily" json:"daily"`
	Monthly int64 `yaml:"monthly" json:"monthly"`
}

// Kind discriminates the entitlement union.
type Kind int

const (
	KindPermission Kind = iota // on/off capability
	KindMetered                // daily/monthly usage budget
	KindCap                    // single numeric maximum
)

// Entitlement is the access rule a tier grants for one feature: a
// permission (on/off), a metered quota, or a numeric cap. Exactly one
// of the payload fields is meaningful, selected by Kind.
type Entitlement struct {
	Kind    Kind
	Enabled bool  // KindPermission
	Quota   Quota // KindMetered
	Max     int64 // KindCap
}

// Permission returns an on/off entitlement.
func Permission(enabled bool) Entitlement {
	return Entitlement{Kind: KindPermission, Enabled: enabled}
}

// Metered returns a quota entitlement with the given daily/monthly budget.
func Metered(daily, monthly int64) Entitlement {
	return Entitlement{Kind: KindMetered, Quota: Quota{Daily: daily, Monthly: monthly}}
}

// Cap returns a numeric-maximum entitlement.
func Cap(max int64) Entitlement {
	return Entitlement{Kind: KindCap, Max: max}
}
