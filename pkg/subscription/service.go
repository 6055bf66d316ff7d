package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qrforge/qrforge/pkg/entitlement"
	"github.com/qrforge/qrforge/pkg/logger"
)

// TierStore applies a tier change to the user record. Satisfied by
// usage.Store. The subscription service is the only writer of tiers;
// usage tracking only ever reads them.
type TierStore interface {
	SetTier(ctx context.Context, userID uuid.UUID, tier entitlement.Tier) error
}

// Service manages subscriptions: checkout, portal links, and the
// webhook-driven lifecycle that flips user tiers.
type Service struct {
	catalog  *Catalog
	provider BillingProvider
	store    Store
	tiers    TierStore
	log      *slog.Logger
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithServiceClock overrides the time source, for tests.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a subscription service. Panics on nil required
// dependencies to fail fast during initialization.
func NewService(catalog *Catalog, provider BillingProvider, store Store, tiers TierStore, opts ...ServiceOption) *Service {
	if catalog == nil {
		panic("subscription: Catalog is required")
	}
	if provider == nil {
		panic("subscription: BillingProvider is required")
	}
	if store == nil {
		panic("subscription: Store is required")
	}
	if tiers == nil {
		panic("subscription: TierStore is required")
	}

	s := &Service{
		catalog:  catalog,
		provider: provider,
		store:    store,
		tiers:    tiers,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout creates a checkout link for the user to subscribe to a tier.
// The free tier bypasses the billing provider and activates instantly.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, tier entitlement.Tier, opts CheckoutOptions) (*CheckoutLink, error) {
	plan, err := s.catalog.ByTier(tier)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Get(ctx, userID); err == nil {
		return nil, ErrSubscriptionAlreadyExists
	} else if !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, err
	}

	if plan.Free() {
		now := s.now().UTC()
		sub := &Subscription{
			UserID:    userID,
			Tier:      plan.Tier,
			Status:    StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.store.Save(ctx, sub); err != nil {
			return nil, fmt.Errorf("failed to save free plan subscription: %w", err)
		}
		if err := s.tiers.SetTier(ctx, userID, plan.Tier); err != nil {
			return nil, fmt.Errorf("failed to apply free tier: %w", err)
		}
		// No payment needed, send the caller straight to the success URL.
		return &CheckoutLink{
			URL:       opts.SuccessURL,
			ExpiresAt: s.now().Add(5 * time.Minute),
		}, nil
	}

	return s.provider.CreateCheckoutLink(ctx, CheckoutRequest{
		PriceID:    plan.PriceID,
		UserID:     userID.String(),
		Email:      opts.Email,
		SuccessURL: opts.SuccessURL,
		CancelURL:  opts.CancelURL,
	})
}

// Subscription retrieves the user's subscription.
func (s *Service) Subscription(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	return s.store.Get(ctx, userID)
}

// CurrentTier returns the user's tier, degrading to free when no
// subscription exists or the read fails.
func (s *Service) CurrentTier(ctx context.Context, userID uuid.UUID) entitlement.Tier {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return entitlement.TierFree
	}
	if sub.Status == StatusCancelled || sub.Status == StatusExpired {
		return entitlement.TierFree
	}
	return sub.Tier
}

// PortalLink returns a customer portal link for subscription management.
func (s *Service) PortalLink(ctx context.Context, userID uuid.UUID) (*PortalLink, error) {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub.ProviderSubID == "" {
		return nil, ErrNoPortalForFreePlan
	}
	return s.provider.GetCustomerPortalLink(ctx, sub)
}

// OverrideTier applies an administrative tier change outside the
// billing flow, keeping the stored subscription in sync.
func (s *Service) OverrideTier(ctx context.Context, userID uuid.UUID, tier entitlement.Tier) error {
	if !tier.Valid() {
		return entitlement.ErrUnknownTier
	}

	now := s.now().UTC()
	sub, err := s.store.Get(ctx, userID)
	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		sub = &Subscription{
			UserID:    userID,
			Status:    StatusActive,
			CreatedAt: now,
		}
	case err != nil:
		return err
	}
	sub.Tier = tier
	sub.UpdatedAt = now

	if err := s.store.Save(ctx, sub); err != nil {
		return err
	}
	return s.tiers.SetTier(ctx, userID, tier)
}

// HandleWebhook processes a billing provider event: verifies it,
// updates the stored subscription, and applies the resulting tier.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}

	if event.CustomerID == "" {
		// Event types we don't attribute to a user (price updates etc).
		s.log.DebugContext(ctx, "ignoring unattributed billing event",
			slog.String("provider_event", event.ProviderEvent))
		return nil
	}

	userID, err := uuid.Parse(event.CustomerID)
	if err != nil {
		return fmt.Errorf("invalid user ID in webhook: %w", err)
	}

	switch event.Type {
	case EventSubscriptionCreated:
		return s.applyCreated(ctx, userID, event)
	case EventSubscriptionUpdated:
		return s.applyUpdated(ctx, userID, event)
	case EventSubscriptionCancelled:
		return s.applyCancelled(ctx, userID, event)
	case EventSubscriptionResumed:
		return s.applyResumed(ctx, userID)
	case EventPaymentFailed:
		return s.applyPaymentFailed(ctx, userID)
	}

	s.log.DebugContext(ctx, "ignoring billing event",
		slog.String("provider_event", event.ProviderEvent),
		logger.UserID(userID))
	return nil
}

func (s *Service) applyCreated(ctx context.Context, userID uuid.UUID, event *WebhookEvent) error {
	plan, err := s.catalog.ByPriceID(event.PriceID)
	if err != nil {
		return fmt.Errorf("webhook references unknown price %q: %w", event.PriceID, err)
	}

	now := s.now().UTC()
	sub := &Subscription{
		UserID:        userID,
		Tier:          plan.Tier,
		PriceID:       plan.PriceID,
		Status:        mapProviderStatus(event.Status),
		ProviderSubID: event.SubscriptionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if sub.Status == StatusTrialing && plan.TrialDays > 0 {
		trialEnd := plan.TrialEndsAt(now)
		sub.TrialEndsAt = &trialEnd
	}

	if err := s.store.Save(ctx, sub); err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return s.tiers.SetTier(ctx, userID, plan.Tier)
}

func (s *Service) applyUpdated(ctx context.Context, userID uuid.UUID, event *WebhookEvent) error {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("subscription not found for user %s: %w", userID, err)
	}

	if event.PriceID != "" && event.PriceID != sub.PriceID {
		plan, err := s.catalog.ByPriceID(event.PriceID)
		if err != nil {
			return fmt.Errorf("webhook references unknown price %q: %w", event.PriceID, err)
		}
		sub.Tier = plan.Tier
		sub.PriceID = plan.PriceID
	}
	sub.Status = mapProviderStatus(event.Status)
	sub.UpdatedAt = s.now().UTC()

	if err := s.store.Save(ctx, sub); err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return s.tiers.SetTier(ctx, userID, sub.Tier)
}

func (s *Service) applyCancelled(ctx context.Context, userID uuid.UUID, event *WebhookEvent) error {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("subscription not found for user %s: %w", userID, err)
	}

	now := s.now().UTC()
	sub.Status = StatusCancelled
	sub.CancelledAt = &now
	sub.UpdatedAt = now

	if err := s.store.Save(ctx, sub); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	// Cancellation drops the user back to the free tier.
	return s.tiers.SetTier(ctx, userID, entitlement.TierFree)
}

func (s *Service) applyResumed(ctx context.Context, userID uuid.UUID) error {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("subscription not found for user %s: %w", userID, err)
	}

	sub.Status = StatusActive
	sub.CancelledAt = nil
	sub.UpdatedAt = s.now().UTC()

	if err := s.store.Save(ctx, sub); err != nil {
		return fmt.Errorf("failed to resume subscription: %w", err)
	}
	return s.tiers.SetTier(ctx, userID, sub.Tier)
}

func (s *Service) applyPaymentFailed(ctx context.Context, userID uuid.UUID) error {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get subscription: %w", err)
	}

	sub.Status = StatusPastDue
	sub.UpdatedAt = s.now().UTC()
	// Tier is untouched: past-due users keep access until cancellation.
	return s.store.Save(ctx, sub)
}

// mapProviderStatus normalizes provider status strings, spelling
// variants included. Unknown statuses default to active so a new
// provider status cannot lock a paying customer out.
func mapProviderStatus(providerStatus string) Status {
	switch strings.ToLower(providerStatus) {
	case "trialing":
		return StatusTrialing
	case "active", "":
		return StatusActive
	case "past_due":
		return StatusPastDue
	case "canceled", "cancelled":
		return StatusCancelled
	case "expired":
		return StatusExpired
	default:
		return StatusActive
	}
}
