// Package logger builds the slog.Logger used across the service.
//
// New assembles a text or JSON handler from Option values and wraps it
// in LogHandlerDecorator, which runs registered ContextExtractor
// callbacks on every record. The request ID middleware supplies such an
// extractor, so every log line emitted while serving a request carries
// its correlation ID without handlers threading it through.
//
// Environment presets pick sensible defaults:
//
//	log := logger.New(logger.WithEnvironment(cfg.Env, "qrforge"))
//	logger.SetAsDefault(log)
//
// attr.go holds the attribute constructors (Error, UserID, Component,
// ...) that keep field names consistent between the generator handlers,
// the usage tracker, and the billing webhook processor.
package logger
