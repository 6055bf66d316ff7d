package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/qrforge/qrforge/pkg/entitlement"
)

// Subscription represents a user's subscription to a plan.
// Each user has exactly one subscription at a time, so UserID is the
// primary key.
type Subscription struct {
	UserID             uuid.UUID
	Tier               entitlement.Tier
	PriceID            string // provider price ID (empty for the free plan)
	Status             Status
	ProviderSubID      string // provider's subscription ID (empty for free plans)
	ProviderCustomerID string // provider's customer ID (ctm_xxx, cus_xxx)
	CreatedAt          time.Time
	UpdatedAt          time.Time
	TrialEndsAt        *time.Time // set only for plans with trials
	CancelledAt        *time.Time // set when the subscription is cancelled
}

func (s *Subscription) IsTrialing() bool {
	return s.Status == StatusTrialing
}

func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

func (s *Subscription) IsCancelled() bool {
	return s.Status == StatusCancelled
}

func (s *Subscription) IsTrialExpired() bool {
	if s.TrialEndsAt == nil {
		return false
	}
	return time.Now().UTC().After(*s.TrialEndsAt)
}

// TrialDaysRemainingAt returns the days left in the trial at a given
// time, rounding partial days up. Useful for testing with fixed clocks.
func (s *Subscription) TrialDaysRemainingAt(now time.Time) int {
	if !s.IsTrialing() || s.TrialEndsAt == nil {
		return 0
	}

	remaining := s.TrialEndsAt.Sub(now)
	if remaining <= 0 {
		return 0
	}

	days := remaining.Hours() / 24
	return int(days + 0.5)
}

// TrialDaysRemaining returns the days left in the trial.
func (s *Subscription) TrialDaysRemaining() int {
	return s.TrialDaysRemainingAt(time.Now().UTC())
}
