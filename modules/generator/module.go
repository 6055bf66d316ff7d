package generator

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/qrforge/qrforge/pkg/entitlement"
	"github.com/qrforge/qrforge/pkg/storage"
	"github.com/qrforge/qrforge/pkg/subscription"
	"github.com/qrforge/qrforge/pkg/usage"
)

// Config carries the module's environment-driven settings.
type Config struct {
	UpgradeURL string `env:"UPGRADE_URL" envDefault:"/billing/upgrade"`
}

// Module is the HTTP surface for code generation: QR, barcodes, bulk
// jobs, usage introspection, logo uploads, and billing webhooks.
type Module struct {
	policy     entitlement.Policy
	store      usage.Store
	logos      *storage.Store
	billing    map[string]*subscription.Service
	upgradeURL string
	log        *slog.Logger
	now        func() time.Time
}

// Option configures a Module.
type Option func(*Module)

// WithLogoStore enables the logo upload endpoints.
func WithLogoStore(logos *storage.Store) Option {
	return func(m *Module) { m.logos = logos }
}

// WithBillingProvider registers a subscription service under a webhook
// path segment ("paddle", "stripe").
func WithBillingProvider(name string, svc *subscription.Service) Option {
	return func(m *Module) { m.billing[name] = svc }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Module) {
		if log != nil {
			m.log = log
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Module) {
		if now != nil {
			m.now = now
		}
	}
}

// New creates the generator module. Panics on nil required dependencies
// to fail fast during initialization.
func New(cfg Config, policy entitlement.Policy, store usage.Store, opts ...Option) *Module {
	if policy == nil {
		panic("generator: entitlement.Policy is required")
	}
	if store == nil {
		panic("generator: usage.Store is required")
	}

	m := &Module{
		policy:     policy,
		store:      store,
		billing:    make(map[string]*subscription.Service),
		upgradeURL: cfg.UpgradeURL,
		log:        slog.Default(),
		now:        time.Now,
	}
	if m.upgradeURL == "" {
		m.upgradeURL = "/billing/upgrade"
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Router mounts the module's routes.
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/qr", m.handleGenerateQR)
	r.Post("/barcode", m.handleGenerateBarcode)
	r.Post("/bulk", m.handleGenerateBulk)
	r.Get("/usage", m.handleUsage)
	r.Post("/uploads/logo", m.handleUploadLogo)
	r.Post("/webhooks/billing/{provider}", m.handleBillingWebhook)

	return r
}
