package subscription

import (
	"context"
	"time"
)

// BillingProvider is the minimal interface a payment provider
// integration must satisfy. Providers handle all payment complexity
// through hosted checkouts and customer portals; implementations use
// the official provider SDK and absorb provider-specific quirks
// internally.
type BillingProvider interface {
	// CreateCheckoutLink creates a hosted checkout session.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// GetCustomerPortalLink returns a temporary link to the customer
	// portal where users update payment methods, cancel, or change plans.
	GetCustomerPortalLink(ctx context.Context, sub *Subscription) (*PortalLink, error)

	// ParseWebhook validates the signature and normalizes the event.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// CheckoutRequest contains the data needed to create a checkout session.
type CheckoutRequest struct {
	PriceID    string // provider's price identifier
	UserID     string // our internal user ID, echoed back in webhooks
	Email      string // optional billing email
	SuccessURL string
	CancelURL  string
}

// CheckoutLink represents a hosted checkout session.
type CheckoutLink struct {
	URL       string
	SessionID string
	ExpiresAt time.Time
}

// PortalLink represents a customer portal session.
type PortalLink struct {
	URL              string
	CancelURL        string // direct cancel-subscription action, when offered
	UpdatePaymentURL string // direct update-payment-method action, when offered
	ExpiresAt        time.Time
}

// WebhookEvent is a normalized billing event.
type WebhookEvent struct {
	Type           EventType
	ProviderEvent  string // original provider event name
	SubscriptionID string // provider's subscription ID
	CustomerID     string // our user ID echoed through metadata
	Status         string // provider's subscription status
	PriceID        string // the price the customer subscribed to
	Raw            map[string]any
}

// EventType is the normalized billing event type. Each provider maps
// its own event names onto these.
type EventType string

const (
	EventSubscriptionCreated   EventType = "subscription_created"
	EventSubscriptionUpdated   EventType = "subscription_updated"
	EventSubscriptionCancelled EventType = "subscription_cancelled"
	EventSubscriptionResumed   EventType = "subscription_resumed"

	EventPaymentSucceeded EventType = "payment_succeeded"
	EventPaymentFailed    EventType = "payment_failed"
)
