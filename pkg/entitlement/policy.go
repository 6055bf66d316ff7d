package entitlement

import (
	"errors"
	"fmt"
	"maps"
)

// Policy is the immutable mapping from tier to per-feature entitlements.
// Treat a Policy as read-only after construction; Validate assumes no
// concurrent modification.
type Policy map[Tier]map[Feature]Entitlement

// DefaultPolicy returns the built-in entitlement matrix.
// The returned value is a fresh copy, safe for the caller to extend
// before wiring it into a service.
func DefaultPolicy() Policy {
	p := Policy{
		TierFree: {
			FeatureQRCodesGenerated:  Metered(5, 100),
			FeatureBarcodesGenerated: Metered(5, 100),
			FeatureBulkGenerations:   Metered(0, 0),
			FeatureAICustomizations:  Metered(0, 0),

			FeatureNoWatermark:      Permission(false),
			FeatureSVGDownload:      Permission(false),
			FeaturePDFDownload:      Permission(false),
			FeatureQRCodeTracking:   Permission(false),
			FeatureEnhancedBarcodes: Permission(false),
			FeatureFileUploads:      Permission(false),
			FeatureAnalytics:        Permission(false),
			FeatureCustomBranding:   Permission(false),
			FeatureAPIAccess:        Permission(false),

			FeatureMaxBulkItems:   Cap(0),
			FeatureMaxTeamMembers: Cap(1),
		},
		TierPro: {
			FeatureQRCodesGenerated:  Metered(100, 2000),
			FeatureBarcodesGenerated: Metered(100, 2000),
			FeatureBulkGenerations:   Metered(10, 100),
			FeatureAICustomizations:  Metered(20, 200),

			FeatureNoWatermark:      Permission(true),
			FeatureSVGDownload:      Permission(true),
			FeaturePDFDownload:      Permission(true),
			FeatureQRCodeTracking:   Permission(true),
			FeatureEnhancedBarcodes: Permission(true),
			FeatureFileUploads:      Permission(true),
			FeatureAnalytics:        Permission(true),
			FeatureCustomBranding:   Permission(false),
			FeatureAPIAccess:        Permission(false),

			FeatureMaxBulkItems:   Cap(50),
			FeatureMaxTeamMembers: Cap(3),
		},
		TierBusiness: {
			FeatureQRCodesGenerated:  Metered(Unlimited, Unlimited),
			FeatureBarcodesGenerated: Metered(Unlimited, Unlimited),
			FeatureBulkGenerations:   Metered(100, 1000),
			FeatureAICustomizations:  Metered(200, 2000),

			FeatureNoWatermark:      Permission(true),
			FeatureSVGDownload:      Permission(true),
			FeaturePDFDownload:      Permission(true),
			FeatureQRCodeTracking:   Permission(true),
			FeatureEnhancedBarcodes: Permission(true),
			FeatureFileUploads:      Permission(true),
			FeatureAnalytics:        Permission(true),
			FeatureCustomBranding:   Permission(true),
			FeatureAPIAccess:        Permission(true),

			FeatureMaxBulkItems:   Cap(200),
			FeatureMaxTeamMembers: Cap(10),
		},
	}

	out := make(Policy, len(p))
	for tier, features := range p {
		out[tier] = maps.Clone(features)
	}
	return out
}

// Entitlement looks up the access rule for a tier/feature pair.
// The second return value is false when either is absent from the table.
func (p Policy) Entitlement(tier Tier, feature Feature) (Entitlement, bool) {
	features, ok := p[tier]
	if !ok {
		return Entitlement{}, false
	}
	ent, ok := features[feature]
	return ent, ok
}

// Validate checks the policy for completeness and tier monotonicity:
// every known tier defines every known feature, and a higher tier is
// never stricter than a lower one for the same feature.
func (p Policy) Validate() error {
	for _, tier := range Tiers() {
		features, ok := p[tier]
		if !ok {
			return errors.Join(ErrIncompletePolicy, fmt.Errorf("tier %q is not defined", tier))
		}
		for _, feature := range Features() {
			if _, ok := features[feature]; !ok {
				return errors.Join(ErrIncompletePolicy,
					fmt.Errorf("tier %q has no entry for feature %q", tier, feature))
			}
		}
	}

	ordered := Tiers()
	for i := 1; i < len(ordered); i++ {
		lower, higher := ordered[i-1], ordered[i]
		for _, feature := range Features() {
			lo := p[lower][feature]
			hi := p[higher][feature]
			if lo.Kind != hi.Kind {
				return errors.Join(ErrInvalidPolicy,
					fmt.Errorf("feature %q changes kind between %q and %q", feature, lower, higher))
			}
			if err := checkNotStricter(lo, hi); err != nil {
				return errors.Join(ErrNonMonotonicPolicy,
					fmt.Errorf("feature %q: %q grants less than %q: %w", feature, higher, lower, err))
			}
		}
	}

	return nil
}

// checkNotStricter reports an error when hi grants strictly less than lo.
func checkNotStricter(lo, hi Entitlement) error {
	switch lo.Kind {
	case KindPermission:
		if lo.Enabled && !hi.Enabled {
			return errors.New("permission revoked")
		}
	case KindMetered:
		if axisStricter(lo.Quota.Daily, hi.Quota.Daily) {
			return fmt.Errorf("daily quota reduced from %d to %d", lo.Quota.Daily, hi.Quota.Daily)
		}
		if axisStricter(lo.Quota.Monthly, hi.Quota.Monthly) {
			return fmt.Errorf("monthly quota reduced from %d to %d", lo.Quota.Monthly, hi.Quota.Monthly)
		}
	case KindCap:
		if axisStricter(lo.Max, hi.Max) {
			return fmt.Errorf("cap reduced from %d to %d", lo.Max, hi.Max)
		}
	}
	return nil
}

// axisStricter reports whether hi is a smaller budget than lo,
// treating Unlimited as the largest possible value.
func axisStricter(lo, hi int64) bool {
	if hi == Unlimited {
		return false
	}
	if lo == Unlimited {
		return true
	}
	return hi < lo
}
