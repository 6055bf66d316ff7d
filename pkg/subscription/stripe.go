package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	portalsession "github.com/stripe/stripe-go/v76/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeConfig holds configuration for the Stripe billing provider.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
	PortalReturn  string `env:"STRIPE_PORTAL_RETURN_URL"`
}

// stripeWebhookTolerance bounds accepted clock drift on webhook signatures.
const stripeWebhookTolerance = 5 * time.Minute

// StripeProvider implements BillingProvider for Stripe using hosted
// checkout sessions and the billing portal.
type StripeProvider struct {
	webhookSecret string
	portalReturn  string
}

// NewStripeProvider creates a new Stripe billing provider.
// The secret key is installed process-wide, matching how the Stripe SDK
// expects to be initialized.
func NewStripeProvider(cfg StripeConfig) (*StripeProvider, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}
	stripe.Key = cfg.SecretKey
	return &StripeProvider{
		webhookSecret: cfg.WebhookSecret,
		portalReturn:  cfg.PortalReturn,
	}, nil
}

// CreateCheckoutLink creates a hosted Stripe Checkout session in
// subscription mode. The user ID rides along as the client reference and
// in the subscription metadata so every later webhook can be attributed.
func (p *StripeProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if req.PriceID == "" {
		return nil, errors.New("price ID is required")
	}
	if req.UserID == "" {
		return nil, errors.New("user ID is required")
	}

	params := &stripe.CheckoutSessionParams{
		Params:            stripe.Params{Context: ctx},
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(req.UserID),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(req.PriceID),
			Quantity: stripe.Int64(1),
		}},
		Metadata: map[string]string{
			"user_id":  req.UserID,
			"price_id": req.PriceID,
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id":  req.UserID,
				"price_id": req.PriceID,
			},
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		return nil, errors.Join(ErrProviderError, fmt.Errorf("failed to create checkout session: %w", err))
	}
	if s.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutLink{
		URL:       s.URL,
		SessionID: s.ID,
		ExpiresAt: time.Unix(s.ExpiresAt, 0),
	}, nil
}

// GetCustomerPortalLink creates a Stripe billing portal session for the
// subscription's customer.
func (p *StripeProvider) GetCustomerPortalLink(ctx context.Context, sub *Subscription) (*PortalLink, error) {
	if sub == nil || sub.ProviderSubID == "" {
		return nil, ErrNoPortalForFreePlan
	}
	if sub.ProviderCustomerID == "" {
		return nil, errors.New("provider customer ID is required for the billing portal")
	}

	params := &stripe.BillingPortalSessionParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(sub.ProviderCustomerID),
	}
	if p.portalReturn != "" {
		params.ReturnURL = stripe.String(p.portalReturn)
	}

	s, err := portalsession.New(params)
	if err != nil {
		return nil, errors.Join(ErrProviderError, fmt.Errorf("failed to create portal session: %w", err))
	}
	if s.URL == "" {
		return nil, ErrNoPortalURL
	}

	return &PortalLink{
		URL:       s.URL,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

// ParseWebhook verifies the Stripe signature (with tolerance for clock
// drift) and normalizes the event.
func (p *StripeProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	stripeEvent, err := webhook.ConstructEventWithTolerance(payload, signature, p.webhookSecret, stripeWebhookTolerance)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}

	event := &WebhookEvent{
		Type:          mapStripeEventType(string(stripeEvent.Type)),
		ProviderEvent: string(stripeEvent.Type),
		Raw:           stripeEvent.Data.Object,
	}

	switch stripeEvent.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(stripeEvent.Data.Raw, &cs); err != nil {
			return nil, errors.Join(ErrInvalidWebhookPayload, err)
		}
		event.CustomerID = cs.ClientReferenceID
		event.Status = "active"
		event.PriceID = cs.Metadata["price_id"]
		if cs.Subscription != nil {
			event.SubscriptionID = cs.Subscription.ID
		}

	case "customer.subscription.updated", "customer.subscription.deleted", "customer.subscription.resumed":
		var sub stripe.Subscription
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sub); err != nil {
			return nil, errors.Join(ErrInvalidWebhookPayload, err)
		}
		event.SubscriptionID = sub.ID
		event.Status = string(sub.Status)
		event.CustomerID = sub.Metadata["user_id"]
		if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
			event.PriceID = sub.Items.Data[0].Price.ID
		}

	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(stripeEvent.Data.Raw, &inv); err != nil {
			return nil, errors.Join(ErrInvalidWebhookPayload, err)
		}
		if inv.Subscription != nil {
			event.SubscriptionID = inv.Subscription.ID
		}
		if inv.SubscriptionDetails != nil {
			event.CustomerID = inv.SubscriptionDetails.Metadata["user_id"]
		}
		event.Status = "past_due"
	}

	return event, nil
}

func mapStripeEventType(stripeEvent string) EventType {
	switch stripeEvent {
	case "checkout.session.completed":
		return EventSubscriptionCreated
	case "customer.subscription.updated":
		return EventSubscriptionUpdated
	case "customer.subscription.deleted":
		return EventSubscriptionCancelled
	case "customer.subscription.resumed":
		return EventSubscriptionResumed
	case "invoice.payment_succeeded":
		return EventPaymentSucceeded
	case "invoice.payment_failed":
		return EventPaymentFailed
	default:
		return EventType(stripeEvent)
	}
}
