// Package subscription manages the billing side of tiered plans: a plan
// catalog, checkout and customer portal links, and the webhook-driven
// subscription lifecycle that flips user tiers.
//
// The package integrates with payment providers (Paddle, Stripe) through
// a minimal BillingProvider interface. It deliberately owns nothing about
// quotas or feature gates; it only decides WHICH tier a user is on and
// writes that decision through a TierStore. Enforcement lives in the
// entitlement and usage packages.
//
// # Architecture
//
//   - Service: checkout, portal links, webhook processing, tier overrides
//   - Catalog: validated plan definitions keyed by tier and provider price ID
//   - BillingProvider: abstracts Paddle/Stripe checkout and webhooks
//   - Store: persists subscription records (in-memory and MongoDB)
//   - TierStore: applies the resulting tier to the user record
//
// The subscription service is the only writer of tiers. Everything else
// in the application treats a user's tier as read-only input.
//
// # Quick Start
//
// Build a catalog, pick a provider, and wire the service:
//
//	import "github.com/qrforge/qrforge/pkg/subscription"
//
//	catalog, err := subscription.NewDefaultCatalog(subscription.CatalogConfig{
//		ProPriceID:      "pri_pro_monthly",
//		BusinessPriceID: "pri_business_monthly",
//		ProTrialDays:    14,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	provider, err := subscription.NewPaddleProvider(subscription.PaddleConfig{
//		APIKey:        os.Getenv("PADDLE_API_KEY"),
//		WebhookSecret: os.Getenv("PADDLE_WEBHOOK_SECRET"),
//		Environment:   "sandbox",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	svc := subscription.NewService(catalog, provider, store, tierStore)
//
// # Checkout
//
// Checkout returns a provider-hosted payment link. The free tier skips
// the provider entirely and activates on the spot:
//
//	link, err := svc.Checkout(ctx, userID, entitlement.TierPro, subscription.CheckoutOptions{
//		Email:      user.Email,
//		SuccessURL: "https://app.example.com/billing/success",
//		CancelURL:  "https://app.example.com/billing/cancel",
//	})
//	if err != nil {
//		// handle error
//	}
//	http.Redirect(w, r, link.URL, http.StatusSeeOther)
//
// # Webhooks
//
// Feed raw webhook payloads to HandleWebhook; it verifies the signature,
// normalizes provider-specific events, and applies tier changes:
//
//	func billingWebhook(svc *subscription.Service) http.HandlerFunc {
//		return func(w http.ResponseWriter, r *http.Request) {
//			payload, _ := io.ReadAll(r.Body)
//			sig := r.Header.Get("Paddle-Signature")
//			if err := svc.HandleWebhook(r.Context(), payload, sig); err != nil {
//				http.Error(w, "webhook failed", http.StatusBadRequest)
//				return
//			}
//			w.WriteHeader(http.StatusOK)
//		}
//	}
//
// Subscription cancellation drops the user to the free tier; failed
// payments mark the subscription past due but keep the paid tier until
// the provider cancels it.
//
// # Error Handling
//
// The package uses sentinel errors for all failure conditions:
//
//	sub, err := svc.Subscription(ctx, userID)
//	if errors.Is(err, subscription.ErrSubscriptionNotFound) {
//		// user never subscribed, treat as free tier
//	}
//
// CurrentTier wraps this pattern and degrades to the free tier on any
// read failure, so request paths never block on billing state.
package subscription
