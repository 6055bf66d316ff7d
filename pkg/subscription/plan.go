package subscription

import (
	"errors"
	"fmt"
	"time"

	"github.com/qrforge/qrforge/pkg/entitlement"
)

// Plan describes one purchasable subscription tier. PriceID must be the
// payment provider's price identifier for paid plans so webhook events
// can be mapped back to a tier.
type Plan struct {
	Tier        entitlement.Tier
	PriceID     string // provider price ID, empty for the free plan
	Name        string
	Description string
	Price       Money
	Interval    BillingInterval
	TrialDays   int
	Public      bool // available for self-service signup
}

// TrialEndsAt calculates when the trial period ends.
// Returns startedAt unchanged if the plan has no trial.
func (p Plan) TrialEndsAt(startedAt time.Time) time.Time {
	if p.TrialDays <= 0 {
		return startedAt
	}
	return startedAt.AddDate(0, 0, p.TrialDays).UTC()
}

// IsTrialActive reports whether the user is still inside the trial window.
func (p Plan) IsTrialActive(startedAt time.Time) bool {
	if p.TrialDays <= 0 {
		return false
	}
	return time.Now().UTC().Before(p.TrialEndsAt(startedAt))
}

// Free reports whether the plan bypasses the billing provider.
func (p Plan) Free() bool {
	return p.Interval == BillingIntervalNone
}

// Catalog is the immutable set of purchasable plans, indexed by tier
// and by provider price ID.
type Catalog struct {
	byTier  map[entitlement.Tier]Plan
	byPrice map[string]Plan
}

// NewCatalog builds a catalog from the given plans. Each tier may
// appear once, tiers must be valid, paid plans need a price ID, and the
// free plan must not carry one.
func NewCatalog(plans ...Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, errors.Join(ErrInvalidPlanConfiguration, errors.New("no plans given"))
	}

	c := &Catalog{
		byTier:  make(map[entitlement.Tier]Plan, len(plans)),
		byPrice: make(map[string]Plan, len(plans)),
	}
	for _, plan := range plans {
		if !plan.Tier.Valid() {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %q has unknown tier %q", plan.Name, plan.Tier))
		}
		if _, exists := c.byTier[plan.Tier]; exists {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("duplicate plan for tier %q", plan.Tier))
		}
		if plan.TrialDays < 0 {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %q has negative trial days: %d", plan.Name, plan.TrialDays))
		}
		if plan.Free() != (plan.PriceID == "") {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %q: price ID is required exactly for paid plans", plan.Name))
		}
		c.byTier[plan.Tier] = plan
		if plan.PriceID != "" {
			if _, exists := c.byPrice[plan.PriceID]; exists {
				return nil, errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("duplicate price ID %q", plan.PriceID))
			}
			c.byPrice[plan.PriceID] = plan
		}
	}
	return c, nil
}

// ByTier returns the plan for a tier.
func (c *Catalog) ByTier(tier entitlement.Tier) (Plan, error) {
	plan, ok := c.byTier[tier]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return plan, nil
}

// ByPriceID returns the plan matching a provider price ID.
func (c *Catalog) ByPriceID(priceID string) (Plan, error) {
	plan, ok := c.byPrice[priceID]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return plan, nil
}

// Public returns the self-service plans in ascending tier order.
func (c *Catalog) Public() []Plan {
	out := make([]Plan, 0, len(c.byTier))
	for _, tier := range entitlement.Tiers() {
		if plan, ok := c.byTier[tier]; ok && plan.Public {
			out = append(out, plan)
		}
	}
	return out
}
