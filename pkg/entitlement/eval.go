package entitlement

// RemainingKind discriminates the result of a remaining-usage computation.
type RemainingKind int

const (
	// RemainingMetered means the feature is counted and the Daily/Monthly
	// fields carry the remaining budget.
	RemainingMetered RemainingKind = iota
	// RemainingUnlimited means the feature is counted but has no budget.
	RemainingUnlimited
	// RemainingNotApplicable means the feature is not counted at all
	// (pure permission); usage math does not apply.
	RemainingNotApplicable
)

// Remaining is the tri-state answer to "how much quota is left".
// Daily and Monthly are meaningful only when Kind is RemainingMetered.
type Remaining struct {
	Kind    RemainingKind
	Daily   int64
	Monthly int64
}

// Exhausted reports whether the remaining budget blocks further usage.
// The more restrictive axis wins: any axis at or below zero blocks.
// Unlimited and not-applicable results never block.
func (r Remaining) Exhausted() bool {
	if r.Kind != RemainingMetered {
		return false
	}
	return r.Daily <= 0 || r.Monthly <= 0
}

// HasAccess reports whether the feature is unlocked for the tier.
// Numeric entitlements count as unlocked when their limit is positive
// or unlimited. Unknown tier/feature combinations return false rather
// than failing, so a stray feature name cannot take down a caller;
// the cost is that misconfiguration is silent here. Policy.Validate
// is the loud counterpart, run at service construction.
func (p Policy) HasAccess(tier Tier, feature Feature) bool {
	ent, ok := p.Entitlement(tier, feature)
	if !ok {
		return false
	}
	switch ent.Kind {
	case KindPermission:
		return ent.Enabled
	case KindMetered:
		return ent.Quota.Daily == Unlimited || ent.Quota.Daily > 0
	case KindCap:
		return ent.Max == Unlimited || ent.Max > 0
	}
	return false
}

// FeatureLimit returns the numeric bound for a cap feature, the daily
// budget for a metered feature, and 0 for permissions and unknown keys.
func (p Policy) FeatureLimit(tier Tier, feature Feature) int64 {
	ent, ok := p.Entitlement(tier, feature)
	if !ok {
		return 0
	}
	switch ent.Kind {
	case KindCap:
		return ent.Max
	case KindMetered:
		return ent.Quota.Daily
	}
	return 0
}

// Remaining computes the budget left for the tier/feature given current
// usage. Results are clamped at zero; usage beyond the limit never
// produces a negative remainder. Permission features return
// RemainingNotApplicable, unlimited quotas return RemainingUnlimited,
// and unknown tier/feature pairs return an exhausted metered result so
// metering fails closed.
func (p Policy) Remaining(tier Tier, feature Feature, usage Quota) Remaining {
	ent, ok := p.Entitlement(tier, feature)
	if !ok {
		return Remaining{Kind: RemainingMetered}
	}

	switch ent.Kind {
	case KindPermission:
		return Remaining{Kind: RemainingNotApplicable}
	case KindCap:
		if ent.Max == Unlimited {
			return Remaining{Kind: RemainingUnlimited}
		}
		left := max(ent.Max-usage.Daily, 0)
		return Remaining{Kind: RemainingMetered, Daily: left, Monthly: left}
	}

	if ent.Quota.Daily == Unlimited && ent.Quota.Monthly == Unlimited {
		return Remaining{Kind: RemainingUnlimited}
	}

	r := Remaining{Kind: RemainingMetered}
	if ent.Quota.Daily == Unlimited {
		r.Daily = maxInt64
	} else {
		r.Daily = max(ent.Quota.Daily-usage.Daily, 0)
	}
	if ent.Quota.Monthly == Unlimited {
		r.Monthly = maxInt64
	} else {
		r.Monthly = max(ent.Quota.Monthly-usage.Monthly, 0)
	}
	return r
}

// ReachedLimit reports whether usage has exhausted the tier's budget on
// either the daily or the monthly axis.
func (p Policy) ReachedLimit(tier Tier, feature Feature, usage Quota) bool {
	return p.Remaining(tier, feature, usage).Exhausted()
}

// WithinLimit reports whether a request for amount more units fits the
// remaining budget. Non-positive amounts never fit.
func (p Policy) WithinLimit(tier Tier, feature Feature, usage Quota, amount int64) bool {
	if amount <= 0 {
		return false
	}
	r := p.Remaining(tier, feature, usage)
	switch r.Kind {
	case RemainingUnlimited, RemainingNotApplicable:
		return true
	}
	return amount <= r.Daily && amount <= r.Monthly
}

const maxInt64 = int64(^uint64(0) >> 1)
