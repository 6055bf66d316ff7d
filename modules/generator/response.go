package generator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/qrforge/qrforge/binder"
	"github.com/qrforge/qrforge/pkg/barcode"
	"github.com/qrforge/qrforge/pkg/export"
	"github.com/qrforge/qrforge/pkg/qrcode"
	"github.com/qrforge/qrforge/pkg/storage"
	"github.com/qrforge/qrforge/pkg/subscription"
	"github.com/qrforge/qrforge/pkg/usage"
)

// Module-level errors surfaced through the HTTP error mapping.
var (
	// ErrFeatureNotAvailable means the current plan lacks a permission.
	ErrFeatureNotAvailable = errors.New("feature not available on current plan")
	// ErrBulkTooLarge means the bulk request exceeds the plan's item cap.
	ErrBulkTooLarge = errors.New("bulk request exceeds plan item limit")
	// ErrUnknownBillingProvider means the webhook path names no configured provider.
	ErrUnknownBillingProvider = errors.New("unknown billing provider")
)

// JSONResponse is the standard JSON response structure.
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail carries machine-readable error information. UpgradeURL is
// set on plan-related failures so clients can route users to checkout.
type ErrorDetail struct {
	Code       string `json:"code"`
	Message    string `json:"message,omitempty"`
	UpgradeURL string `json:"upgrade_url,omitempty"`
}

func (m *Module) respond(w http.ResponseWriter, status int, data any, meta map[string]any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(JSONResponse{Data: data, Meta: meta}); err != nil {
		m.log.Error("failed to encode response", slog.Any("error", err))
	}
}

// respondError maps domain errors onto HTTP statuses. Quota exhaustion
// and plan gaps are conversion moments: both carry the upgrade URL.
func (m *Module) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	detail := &ErrorDetail{Code: "internal_error", Message: "something went wrong"}

	switch {
	case errors.Is(err, usage.ErrQuotaExceeded):
		status = http.StatusPaymentRequired
		detail = &ErrorDetail{
			Code:       "quota_exceeded",
			Message:    "plan quota exhausted for this feature",
			UpgradeURL: m.upgradeURL,
		}
	case errors.Is(err, ErrFeatureNotAvailable):
		status = http.StatusForbidden
		detail = &ErrorDetail{
			Code:       "feature_not_available",
			Message:    err.Error(),
			UpgradeURL: m.upgradeURL,
		}
	case errors.Is(err, ErrBulkTooLarge):
		status = http.StatusForbidden
		detail = &ErrorDetail{
			Code:       "bulk_too_large",
			Message:    err.Error(),
			UpgradeURL: m.upgradeURL,
		}
	case errors.Is(err, usage.ErrNotAuthenticated):
		status = http.StatusUnauthorized
		detail = &ErrorDetail{Code: "unauthorized", Message: "authentication required"}
	case errors.Is(err, ErrUnknownBillingProvider):
		status = http.StatusNotFound
		detail = &ErrorDetail{Code: "not_found", Message: err.Error()}
	case errors.Is(err, subscription.ErrWebhookVerificationFailed),
		errors.Is(err, subscription.ErrInvalidWebhookPayload):
		status = http.StatusBadRequest
		detail = &ErrorDetail{Code: "invalid_webhook", Message: "webhook rejected"}
	case isValidationError(err):
		status = http.StatusUnprocessableEntity
		detail = &ErrorDetail{Code: "invalid_request", Message: err.Error()}
	default:
		m.log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(JSONResponse{Error: detail})
}

// isValidationError groups the input-shaped failures from the binding
// and rendering layers.
func isValidationError(err error) bool {
	for _, candidate := range []error{
		binder.ErrInvalidJSON,
		binder.ErrMissingContentType,
		binder.ErrUnsupportedMediaType,
		qrcode.ErrEmptyContent,
		qrcode.ErrContentTooLong,
		qrcode.ErrInvalidSize,
		qrcode.ErrInvalidLogo,
		barcode.ErrEmptyContent,
		barcode.ErrInvalidContent,
		barcode.ErrUnsupportedFormat,
		barcode.ErrInvalidSize,
		export.ErrEmptyImage,
		export.ErrInvalidImage,
		storage.ErrEmptyFile,
		storage.ErrFileTooLarge,
		storage.ErrUnsupportedImageType,
		usage.ErrUnknownFeature,
		errBadInput,
	} {
		if errors.Is(err, candidate) {
			return true
		}
	}
	return false
}

// errBadInput tags request-shape problems detected in handlers.
var errBadInput = errors.New("invalid request")
