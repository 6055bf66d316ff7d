package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/qrforge/qrforge/modules/generator"
	"github.com/qrforge/qrforge/pkg/config"
	"github.com/qrforge/qrforge/pkg/entitlement"
	"github.com/qrforge/qrforge/pkg/httpserver"
	"github.com/qrforge/qrforge/pkg/logger"
	"github.com/qrforge/qrforge/pkg/mongo"
	"github.com/qrforge/qrforge/pkg/ratelimiter"
	"github.com/qrforge/qrforge/pkg/redis"
	"github.com/qrforge/qrforge/pkg/requestid"
	"github.com/qrforge/qrforge/pkg/storage"
	"github.com/qrforge/qrforge/pkg/subscription"
	"github.com/qrforge/qrforge/pkg/usage"
)

type appConfig struct {
	Env             string `env:"APP_ENV" envDefault:"development"`
	Database        string `env:"MONGODB_DATABASE" envDefault:"qrforge"`
	BillingProvider string `env:"BILLING_PROVIDER" envDefault:"paddle"` // paddle|stripe
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var appCfg appConfig
	if err := config.Load(&appCfg); err != nil {
		return fmt.Errorf("load app config: %w", err)
	}

	log := logger.New(
		logger.WithEnvironment(appCfg.Env, "qrforge"),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	var mongoCfg mongo.Config
	if err := config.Load(&mongoCfg); err != nil {
		return fmt.Errorf("load mongo config: %w", err)
	}
	db, err := mongo.NewWithDatabase(ctx, mongoCfg, appCfg.Database)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			log.Error("mongo disconnect failed", slog.Any("error", err))
		}
	}()

	var redisCfg redis.Config
	if err := config.Load(&redisCfg); err != nil {
		return fmt.Errorf("load redis config: %w", err)
	}
	rdb, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error("redis close failed", slog.Any("error", err))
		}
	}()

	// Mongo is the source of truth for counters and tiers; Redis fronts
	// the read path for the pre-checks on every generation request.
	usageStore := usage.NewCachedStore(usage.NewMongoStore(db), rdb)

	var catalogCfg subscription.CatalogConfig
	if err := config.Load(&catalogCfg); err != nil {
		return fmt.Errorf("load catalog config: %w", err)
	}
	catalog, err := subscription.NewDefaultCatalog(catalogCfg)
	if err != nil {
		return fmt.Errorf("build plan catalog: %w", err)
	}

	provider, err := billingProvider(appCfg.BillingProvider)
	if err != nil {
		return err
	}
	subSvc := subscription.NewService(
		catalog,
		provider,
		subscription.NewMongoStore(db, "subscriptions"),
		usageStore,
		subscription.WithServiceLogger(log),
	)

	var storageCfg storage.Config
	if err := config.Load(&storageCfg); err != nil {
		return fmt.Errorf("load storage config: %w", err)
	}
	logos, err := storage.NewStore(ctx, storageCfg)
	if err != nil {
		return fmt.Errorf("init logo storage: %w", err)
	}

	var genCfg generator.Config
	if err := config.Load(&genCfg); err != nil {
		return fmt.Errorf("load generator config: %w", err)
	}
	gen := generator.New(genCfg, entitlement.DefaultPolicy(), usageStore,
		generator.WithLogoStore(logos),
		generator.WithBillingProvider(appCfg.BillingProvider, subSvc),
		generator.WithLogger(log),
	)

	var rateCfg ratelimiter.Config
	if err := config.Load(&rateCfg); err != nil {
		return fmt.Errorf("load rate limit config: %w", err)
	}
	bucket, err := ratelimiter.NewBucket(ratelimiter.NewRedisStore(rdb), rateCfg)
	if err != nil {
		return fmt.Errorf("init rate limiter: %w", err)
	}

	mux := chi.NewRouter()
	mux.Use(requestid.Middleware)
	mux.Get("/health", httpserver.HealthCheckHandler(ctx, log,
		mongo.Healthcheck(db.Client()),
		redis.Healthcheck(rdb),
	))
	mux.Route("/v1", func(v1 chi.Router) {
		v1.Use(ratelimiter.Middleware(bucket, ratelimiter.Composite(
			ratelimiter.ByHeader(generator.UserIDHeader),
			ratelimiter.ByClientIP(),
		)))
		v1.Mount("/", gen.Router())
	})

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return fmt.Errorf("load http config: %w", err)
	}
	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("server started",
				slog.String("env", appCfg.Env),
				slog.String("billing_provider", appCfg.BillingProvider),
			)
		}),
		httpserver.WithStopHook(func(l *slog.Logger) {
			l.Info("server stopped")
		}),
	)
	return srv.Run(ctx, mux)
}

// billingProvider builds the configured billing integration. Only the
// selected provider's credentials are loaded, so a Paddle deployment
// does not need Stripe keys in its environment.
func billingProvider(name string) (subscription.BillingProvider, error) {
	switch name {
	case "paddle":
		var cfg subscription.PaddleConfig
		if err := config.Load(&cfg); err != nil {
			return nil, fmt.Errorf("load paddle config: %w", err)
		}
		return subscription.NewPaddleProvider(cfg)
	case "stripe":
		var cfg subscription.StripeConfig
		if err := config.Load(&cfg); err != nil {
			return nil, fmt.Errorf("load stripe config: %w", err)
		}
		return subscription.NewStripeProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown billing provider %q", name)
	}
}
