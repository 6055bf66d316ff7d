package barcode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
)

// Error variables for barcode generation
var (
	// ErrEmptyContent is returned when content string is empty or only whitespace
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrUnsupportedFormat is returned for formats this package does not render
	ErrUnsupportedFormat = errors.New("unsupported barcode format")
	// ErrInvalidContent is returned when content does not fit the symbology
	ErrInvalidContent = errors.New("content not valid for barcode format")
	// ErrInvalidSize is returned when the requested dimensions are out of range
	ErrInvalidSize = errors.New("invalid image size")
	// ErrFailedToGenerate is returned when barcode rendering fails.
	ErrFailedToGenerate = errors.New("failed to generate barcode")
)

// Format identifies a barcode symbology.
type Format string

const (
	FormatCode128 Format = "code128"
	FormatEAN13   Format = "ean13"
	FormatEAN8    Format = "ean8"
	FormatCode39  Format = "code39"
)

// ParseFormat maps a request string onto a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCode128:
		return FormatCode128, nil
	case FormatEAN13:
		return FormatEAN13, nil
	case FormatEAN8:
		return FormatEAN8, nil
	case FormatCode39:
		return FormatCode39, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Enhanced reports whether the format belongs to the retail/industrial
// symbology set that plans gate separately from plain Code 128.
func (f Format) Enhanced() bool {
	switch f {
	case FormatEAN13, FormatEAN8, FormatCode39:
		return true
	default:
		return false
	}
}

const (
	defaultWidth  = 256
	defaultHeight = 80
	maxDimension  = 2048
)

type config struct {
	width  int
	height int
}

// Option configures barcode generation.
type Option func(*config)

// WithSize sets the output image dimensions in pixels. Non-positive
// values fall back to the defaults.
func WithSize(width, height int) Option {
	return func(c *config) {
		c.width = width
		c.height = height
	}
}

// Generate renders a barcode image in PNG format.
// Returns the image as a byte slice or an error if generation fails.
func Generate(content string, format Format, opts ...Option) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	cfg := config{width: defaultWidth, height: defaultHeight}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.width <= 0 {
		cfg.width = defaultWidth
	}
	if cfg.height <= 0 {
		cfg.height = defaultHeight
	}
	if cfg.width > maxDimension || cfg.height > maxDimension {
		return nil, fmt.Errorf("%w: %dx%d exceeds maximum %d", ErrInvalidSize, cfg.width, cfg.height, maxDimension)
	}

	encoded, err := encode(content, format)
	if err != nil {
		return nil, err
	}

	scaled, err := barcode.Scale(encoded, cfg.width, cfg.height)
	if err != nil {
		return nil, errors.Join(ErrInvalidSize, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, errors.Join(ErrFailedToGenerate, err)
	}
	return buf.Bytes(), nil
}

// GenerateBase64Image renders a barcode and returns it as a PNG data
// URI for direct embedding in HTML.
func GenerateBase64Image(content string, format Format, opts ...Option) (string, error) {
	img, err := Generate(content, format, opts...)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(img)), nil
}

func encode(content string, format Format) (barcode.Barcode, error) {
	switch format {
	case FormatCode128:
		bc, err := code128.Encode(content)
		if err != nil {
			return nil, errors.Join(ErrInvalidContent, err)
		}
		return bc, nil
	case FormatEAN13, FormatEAN8:
		if err := validateEANDigits(content, format); err != nil {
			return nil, err
		}
		bc, err := ean.Encode(content)
		if err != nil {
			return nil, errors.Join(ErrInvalidContent, err)
		}
		return bc, nil
	case FormatCode39:
		// Checksum on, full-ASCII off: scanners expect the plain charset.
		bc, err := code39.Encode(strings.ToUpper(content), true, false)
		if err != nil {
			return nil, errors.Join(ErrInvalidContent, err)
		}
		return bc, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// validateEANDigits rejects wrong-length payloads up front so the
// caller gets a stable error instead of the library's length guess.
// The upstream encoder accepts either the full code with check digit
// or the code without it; we require the full code.
func validateEANDigits(content string, format Format) error {
	want := 13
	if format == FormatEAN8 {
		want = 8
	}
	if len(content) != want {
		return fmt.Errorf("%w: %s requires %d digits, got %d", ErrInvalidContent, format, want, len(content))
	}
	for _, r := range content {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %s accepts digits only", ErrInvalidContent, format)
		}
	}
	return nil
}
