package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/qrforge/qrforge/binder"
	"github.com/qrforge/qrforge/pkg/barcode"
	"github.com/qrforge/qrforge/pkg/entitlement"
	"github.com/qrforge/qrforge/pkg/export"
	"github.com/qrforge/qrforge/pkg/qrcode"
	"github.com/qrforge/qrforge/pkg/usage"
)

// QRRequest is the payload for POST /qr.
type QRRequest struct {
	Content    string `json:"content"`
	Size       int    `json:"size,omitempty"`
	Recovery   string `json:"recovery,omitempty"`   // low|medium|high|highest
	Foreground string `json:"foreground,omitempty"` // hex, e.g. "#1a1a6e"
	Background string `json:"background,omitempty"`
	LogoKey    string `json:"logo_key,omitempty"`
	Format     string `json:"format,omitempty"` // png|svg|pdf, default png
}

// BarcodeRequest is the payload for POST /barcode.
type BarcodeRequest struct {
	Content   string `json:"content"`
	Symbology string `json:"symbology"` // code128|ean13|ean8|code39
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Format    string `json:"format,omitempty"` // png|svg|pdf, default png
}

// BulkItem is one entry of a bulk generation job.
type BulkItem struct {
	Type      string `json:"type"` // qr|barcode
	Content   string `json:"content"`
	Symbology string `json:"symbology,omitempty"` // barcode items only
	Size      int    `json:"size,omitempty"`
}

// BulkRequest is the payload for POST /bulk.
type BulkRequest struct {
	Items []BulkItem `json:"items"`
}

// Artifact is a generated code image in the response.
type Artifact struct {
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
	Data        string `json:"data"` // base64
}

// BulkItemResult is the per-item outcome of a bulk job.
type BulkItemResult struct {
	Index    int       `json:"index"`
	Artifact *Artifact `json:"artifact,omitempty"`
	Error    string    `json:"error,omitempty"`
}

func (m *Module) handleGenerateQR(w http.ResponseWriter, r *http.Request) {
	var req QRRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		m.respondError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		m.respondError(w, r, fmt.Errorf("%w: content is required", errBadInput))
		return
	}

	ctx := r.Context()
	userID := requestUserID(r)
	tracker := usage.NewTracker(ctx, m.policy, m.store, userID, usage.WithLogger(m.log))

	format, err := m.exportFormat(tracker, req.Format)
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	opts, metered, err := m.qrOptions(ctx, tracker, userID, req)
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	metered = append([]entitlement.Feature{entitlement.FeatureQRCodesGenerated}, metered...)
	if err := m.trackAll(ctx, tracker, metered); err != nil {
		m.respondError(w, r, err)
		return
	}

	img, err := qrcode.Generate(req.Content, opts...)
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	artifact, err := m.packageArtifact(img, format, req.Content)
	if err != nil {
		m.respondError(w, r, err)
		return
	}
	m.respond(w, http.StatusCreated, artifact, nil)
}

func (m *Module) handleGenerateBarcode(w http.ResponseWriter, r *http.Request) {
	var req BarcodeRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		m.respondError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		m.respondError(w, r, fmt.Errorf("%w: content is required", errBadInput))
		return
	}

	symbology, err := barcode.ParseFormat(req.Symbology)
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	ctx := r.Context()
	userID := requestUserID(r)
	tracker := usage.NewTracker(ctx, m.policy, m.store, userID, usage.WithLogger(m.log))

	if symbology.Enhanced() && !tracker.CanUse(entitlement.FeatureEnhancedBarcodes) {
		m.respondError(w, r, fmt.Errorf("%w: %s", ErrFeatureNotAvailable, symbology))
		return
	}

	format, err := m.exportFormat(tracker, req.Format)
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	if err := m.trackAll(ctx, tracker, []entitlement.Feature{entitlement.FeatureBarcodesGenerated}); err != nil {
		m.respondError(w, r, err)
		return
	}

	var opts []barcode.Option
	if req.Width > 0 || req.Height > 0 {
		opts = append(opts, barcode.WithSize(req.Width, req.Height))
	}
	img, err := barcode.Generate(req.Content, symbology, opts...)
	if err != nil {
		m.respondError(w, r, err)
		return
	}

	artifact, err := m.packageArtifact(img, format, req.Content)
	if err != nil {
		m.respondError(w, r, err)
		return
	}
	m.respond(w, http.StatusCreated, artifact, nil)
}

func (m *Module) handleGenerateBulk(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if err := binder.BindJSON()(r, &req); err != nil {
		m.respondError(w, r, err)
		return
	}
	if len(req.Items) == 0 {
		m.respondError(w, r, fmt.Errorf("%w: items are required", errBadInput))
		return
	}

	ctx := r.Context()
	userID := requestUserID(r)
	tracker := usage.NewTracker(ctx, m.policy, m.store, userID, usage.WithLogger(m.log))

	if limit := m.policy.FeatureLimit(tracker.Tier(), entitlement.FeatureMaxBulkItems); limit != entitlement.Unlimited && int64(len(req.Items)) > limit {
		m.respondError(w, r, fmt.Errorf("%w: %d items, plan allows %d", ErrBulkTooLarge, len(req.Items), limit))
		return
	}

	var qrCount, barcodeCount int64
	for i, item := range req.Items {
		switch item.Type {
		case "qr":
			qrCount++
		case "barcode":
			barcodeCount++
		default:
			m.respondError(w, r, fmt.Errorf("%w: item %d has unknown type %q", errBadInput, i, item.Type))
			return
		}
	}

	// One bulk credit plus the per-item meters; all must fit before any
	// counter moves.
	if !tracker.WithinLimit(entitlement.FeatureBulkGenerations, 1) ||
		(qrCount > 0 && !tracker.WithinLimit(entitlement.FeatureQRCodesGenerated, qrCount)) ||
		(barcodeCount > 0 && !tracker.WithinLimit(entitlement.FeatureBarcodesGenerated, barcodeCount)) {
		m.respondError(w, r, usage.ErrQuotaExceeded)
		return
	}
	if err := tracker.Track(ctx, entitlement.FeatureBulkGenerations, 1); err != nil {
		m.respondError(w, r, err)
		return
	}
	if qrCount > 0 {
		if err := tracker.Track(ctx, entitlement.FeatureQRCodesGenerated, qrCount); err != nil {
			m.respondError(w, r, err)
			return
		}
	}
	if barcodeCount > 0 {
		if err := tracker.Track(ctx, entitlement.FeatureBarcodesGenerated, barcodeCount); err != nil {
			m.respondError(w, r, err)
			return
		}
	}

	watermark := !tracker.CanUse(entitlement.FeatureNoWatermark)
	results := make([]BulkItemResult, len(req.Items))
	generated := 0
	for i, item := range req.Items {
		artifact, err := m.generateBulkItem(item, watermark)
		if err != nil {
			results[i] = BulkItemResult{Index: i, Error: err.Error()}
			continue
		}
		results[i] = BulkItemResult{Index: i, Artifact: artifact}
		generated++
	}

	m.respond(w, http.StatusCreated, results, map[string]any{
		"generated": generated,
		"failed":    len(req.Items) - generated,
	})
}

func (m *Module) generateBulkItem(item BulkItem, watermark bool) (*Artifact, error) {
	switch item.Type {
	case "qr":
		var opts []qrcode.Option
		if item.Size > 0 {
			opts = append(opts, qrcode.WithSize(item.Size))
		}
		if watermark {
			opts = append(opts, qrcode.WithWatermark())
		}
		img, err := qrcode.Generate(item.Content, opts...)
		if err != nil {
			return nil, err
		}
		return m.packageArtifact(img, "png", item.Content)
	case "barcode":
		symbology, err := barcode.ParseFormat(item.Symbology)
		if err != nil {
			return nil, err
		}
		img, err := barcode.Generate(item.Content, symbology)
		if err != nil {
			return nil, err
		}
		return m.packageArtifact(img, "png", item.Content)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", errBadInput, item.Type)
	}
}

func (m *Module) handleUploadLogo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestUserID(r)
	if userID == uuid.Nil {
		m.respondError(w, r, usage.ErrNotAuthenticated)
		return
	}
	tracker := usage.NewTracker(ctx, m.policy, m.store, userID, usage.WithLogger(m.log))
	if !tracker.CanUse(entitlement.FeatureFileUploads) {
		m.respondError(w, r, fmt.Errorf("%w: file_uploads", ErrFeatureNotAvailable))
		return
	}
	if m.logos == nil {
		m.respondError(w, r, errors.New("logo storage not configured"))
		return
	}

	file, err := binder.GetFile(r, "logo")
	if err != nil {
		m.respondError(w, r, err)
		return
	}
	if file == nil {
		m.respondError(w, r, fmt.Errorf(`%w: multipart field "logo" is required`, errBadInput))
		return
	}

	logo, err := m.logos.Upload(ctx, userID, bytes.NewReader(file.Content))
	if err != nil {
		m.respondError(w, r, err)
		return
	}
	m.respond(w, http.StatusCreated, logo, nil)
}

// webhookSignatureHeaders maps provider path segments onto the header
// that carries their webhook signature.
var webhookSignatureHeaders = map[string]string{
	"paddle": "Paddle-Signature",
	"stripe": "Stripe-Signature",
}

func (m *Module) handleBillingWebhook(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	svc, ok := m.billing[provider]
	if !ok {
		m.respondError(w, r, fmt.Errorf("%w: %q", ErrUnknownBillingProvider, provider))
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		m.respondError(w, r, fmt.Errorf("%w: %v", errBadInput, err))
		return
	}

	signature := r.Header.Get(webhookSignatureHeaders[provider])
	if err := svc.HandleWebhook(r.Context(), payload, signature); err != nil {
		m.respondError(w, r, err)
		return
	}
	m.respond(w, http.StatusOK, map[string]bool{"received": true}, nil)
}

// qrOptions turns the request into generation options, enforcing the
// plan permissions each option needs. The returned features are the
// extra meters the request consumes beyond the base QR counter.
func (m *Module) qrOptions(ctx context.Context, tracker *usage.Tracker, userID uuid.UUID, req QRRequest) ([]qrcode.Option, []entitlement.Feature, error) {
	var opts []qrcode.Option
	var metered []entitlement.Feature

	if req.Size > 0 {
		opts = append(opts, qrcode.WithSize(req.Size))
	}

	switch req.Recovery {
	case "":
	case "low":
		opts = append(opts, qrcode.WithRecoveryLevel(qrcode.RecoveryLow))
	case "medium":
		opts = append(opts, qrcode.WithRecoveryLevel(qrcode.RecoveryMedium))
	case "high":
		opts = append(opts, qrcode.WithRecoveryLevel(qrcode.RecoveryHigh))
	case "highest":
		opts = append(opts, qrcode.WithRecoveryLevel(qrcode.RecoveryHighest))
	default:
		return nil, nil, fmt.Errorf("%w: unknown recovery level %q", errBadInput, req.Recovery)
	}

	if req.Foreground != "" || req.Background != "" {
		if !tracker.WithinLimit(entitlement.FeatureAICustomizations, 1) {
			return nil, nil, usage.ErrQuotaExceeded
		}
		fg, err := parseHexColor(req.Foreground)
		if err != nil {
			return nil, nil, err
		}
		bg, err := parseHexColor(req.Background)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, qrcode.WithColors(fg, bg))
		metered = append(metered, entitlement.FeatureAICustomizations)
	}

	if req.LogoKey != "" {
		if m.logos == nil {
			return nil, nil, fmt.Errorf("%w: logo storage not configured", errBadInput)
		}
		if !tracker.CanUse(entitlement.FeatureCustomBranding) {
			return nil, nil, fmt.Errorf("%w: custom_branding", ErrFeatureNotAvailable)
		}
		logo, err := m.logos.Fetch(ctx, userID, req.LogoKey)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, qrcode.WithLogo(logo))
	}

	if !tracker.CanUse(entitlement.FeatureNoWatermark) {
		opts = append(opts, qrcode.WithWatermark())
	}
	return opts, metered, nil
}

// trackAll pre-checks every meter before recording any of them, so a
// request either consumes all its credits or none. The store remains
// the authority: a concurrent request may still win the race, in which
// case Track fails with ErrQuotaExceeded mid-way and the already
// recorded credits stand.
func (m *Module) trackAll(ctx context.Context, tracker *usage.Tracker, features []entitlement.Feature) error {
	for _, f := range features {
		if !tracker.WithinLimit(f, 1) {
			return usage.ErrQuotaExceeded
		}
	}
	for _, f := range features {
		if err := tracker.Track(ctx, f, 1); err != nil {
			return err
		}
	}
	return nil
}

// exportFormat validates the requested download format against the
// plan's permissions.
func (m *Module) exportFormat(tracker *usage.Tracker, format string) (string, error) {
	switch format {
	case "", "png":
		return "png", nil
	case "svg":
		if !tracker.CanUse(entitlement.FeatureSVGDownload) {
			return "", fmt.Errorf("%w: svg_download", ErrFeatureNotAvailable)
		}
		return "svg", nil
	case "pdf":
		if !tracker.CanUse(entitlement.FeaturePDFDownload) {
			return "", fmt.Errorf("%w: pdf_download", ErrFeatureNotAvailable)
		}
		return "pdf", nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", errBadInput, format)
	}
}

// packageArtifact converts PNG bytes into the requested download format.
func (m *Module) packageArtifact(img []byte, format, content string) (*Artifact, error) {
	switch format {
	case "svg":
		out, err := export.SVG(img)
		if err != nil {
			return nil, err
		}
		return &Artifact{Format: "svg", ContentType: "image/svg+xml", Data: base64.StdEncoding.EncodeToString(out)}, nil
	case "pdf":
		out, err := export.PDF(img, export.Meta{
			Title:       "Generated Code",
			Content:     content,
			GeneratedAt: m.now(),
		})
		if err != nil {
			return nil, err
		}
		return &Artifact{Format: "pdf", ContentType: "application/pdf", Data: base64.StdEncoding.EncodeToString(out)}, nil
	default:
		return &Artifact{Format: "png", ContentType: "image/png", Data: base64.StdEncoding.EncodeToString(img)}, nil
	}
}

// parseHexColor parses "#rgb" or "#rrggbb". Empty input means the
// default for that side.
func parseHexColor(s string) (color.Color, error) {
	if s == "" {
		return nil, nil
	}
	hex := strings.TrimPrefix(s, "#")
	var r, g, b uint8
	switch len(hex) {
	case 3:
		if _, err := fmt.Sscanf(hex, "%1x%1x%1x", &r, &g, &b); err != nil {
			return nil, fmt.Errorf("%w: invalid color %q", errBadInput, s)
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
			return nil, fmt.Errorf("%w: invalid color %q", errBadInput, s)
		}
	default:
		return nil, fmt.Errorf("%w: invalid color %q", errBadInput, s)
	}
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}
