// Package httpserver runs the API's HTTP listener.
//
// Server wraps net/http with graceful shutdown: Run serves until the
// context is cancelled or an interrupt/TERM signal arrives, then drains
// in-flight requests within the configured shutdown timeout. Errors are
// wrapped with the ErrStart and ErrShutdown sentinels for errors.Is.
//
// Construction goes through New with functional options, or through
// NewFromConfig when the timeouts come from the environment:
//
//	var cfg httpserver.Config
//	config.MustLoad(&cfg)
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	return srv.Run(ctx, mux)
//
// HealthCheckHandler serves the /health endpoint, running the mongo
// and redis pings as readiness checks.
package httpserver
