// Package generator is the HTTP surface of the code generation service.
//
// It mounts the public API under a chi router:
//
//	POST /qr                          generate a QR code
//	POST /barcode                     generate a 1D barcode
//	POST /bulk                        generate a batch of codes
//	GET  /usage                       current tier, quotas, permissions
//	POST /uploads/logo                upload a logo for QR branding
//	POST /webhooks/billing/{provider} billing provider webhooks
//
// Every generation request runs the same flow: build a usage tracker
// for the authenticated user, pre-check the plan's permissions and
// remaining quota, record usage, then render. The pre-check is a UX
// short-circuit; the usage store's conditional increment is the
// authority, so concurrent requests cannot overshoot a quota.
//
// Failure shapes are conversion-oriented: quota exhaustion answers
// 402 Payment Required and missing plan permissions answer 403, both
// carrying an upgrade URL in the error body.
//
// Authentication is delegated to the identity proxy in front of the
// service, which injects the user ID via the X-User-Id header.
package generator
