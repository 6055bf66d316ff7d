// Package entitlement defines the subscription tier / feature policy
// table and the pure evaluation functions that decide whether an action
// is allowed for a tier given its current usage.
//
// Key concepts:
//
//   - Tier: a named subscription level (free, pro, business), totally
//     ordered by entitlement.
//   - Feature: a closed vocabulary of gated capabilities, split into
//     metered features (counted against daily/monthly budgets),
//     permissions (on/off), and caps (single numeric maxima).
//   - Entitlement: the tagged union describing what a tier grants for
//     one feature.
//   - Policy: the immutable Tier -> Feature -> Entitlement table.
//
// All evaluation is synchronous and side-effect free. Lookups are
// lenient: an unknown tier/feature pair yields "no access" rather than
// a panic, so a stray feature string from an outer layer cannot crash
// the caller. Policy.Validate is the strict counterpart and must be run
// once at startup; it enforces completeness and tier monotonicity
// (a higher tier is never granted less than a lower one).
//
// Basic usage:
//
//	policy := entitlement.DefaultPolicy()
//	if err := policy.Validate(); err != nil {
//		// fail startup
//	}
//
//	if policy.HasAccess(entitlement.TierPro, entitlement.FeatureSVGDownload) {
//		// render SVG
//	}
//
//	usage := entitlement.Quota{Daily: 4, Monthly: 40}
//	if policy.WithinLimit(entitlement.TierFree, entitlement.FeatureQRCodesGenerated, usage, 1) {
//		// proceed with generation
//	}
//
// Policy tables can also be loaded from YAML via LoadPolicy, which
// validates the result with the same rules as DefaultPolicy.
package entitlement
