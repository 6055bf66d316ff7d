package subscription

import (
	"github.com/qrforge/qrforge/pkg/entitlement"
)

// CatalogConfig carries the provider price IDs for the paid tiers.
// Price IDs are environment-specific (sandbox vs production catalogs),
// so they come from configuration rather than code.
type CatalogConfig struct {
	ProPriceID        string `env:"BILLING_PRO_PRICE_ID,required"`
	BusinessPriceID   string `env:"BILLING_BUSINESS_PRICE_ID,required"`
	ProTrialDays      int    `env:"BILLING_PRO_TRIAL_DAYS" envDefault:"14"`
	BusinessTrialDays int    `env:"BILLING_BUSINESS_TRIAL_DAYS" envDefault:"14"`
}

// NewDefaultCatalog builds the standard free/pro/business catalog with
// the configured provider price IDs.
func NewDefaultCatalog(cfg CatalogConfig) (*Catalog, error) {
	return NewCatalog(
		Plan{
			Tier:        entitlement.TierFree,
			Name:        "Free",
			Description: "Basic QR and barcode generation with daily limits",
			Interval:    BillingIntervalNone,
			Public:      true,
		},
		Plan{
			Tier:        entitlement.TierPro,
			PriceID:     cfg.ProPriceID,
			Name:        "Pro",
			Description: "Higher limits, bulk generation, watermark-free exports",
			Price:       Money{Amount: 999, Currency: "USD"},
			Interval:    BillingIntervalMonthly,
			TrialDays:   cfg.ProTrialDays,
			Public:      true,
		},
		Plan{
			Tier:        entitlement.TierBusiness,
			PriceID:     cfg.BusinessPriceID,
			Name:        "Business",
			Description: "Unlimited generation, team members, custom branding",
			Price:       Money{Amount: 2999, Currency: "USD"},
			Interval:    BillingIntervalMonthly,
			TrialDays:   cfg.BusinessTrialDays,
			Public:      true,
		},
	)
}
