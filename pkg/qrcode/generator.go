package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

// Error variables for QR code generation
var (
	// ErrEmptyContent is returned when content string is empty or only whitespace
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrContentTooLong is returned when content exceeds what a QR code can hold
	ErrContentTooLong = errors.New("content too long for a QR code")
	// ErrInvalidSize is returned when the requested size exceeds the maximum
	ErrInvalidSize = errors.New("invalid image size")
	// ErrFailedToGenerate is returned when the QR code generation fails.
	ErrFailedToGenerate = errors.New("failed to generate QR code")
)

const (
	// defaultSize is the size in pixels used when no size is specified
	defaultSize = 256
	// maxSize caps the output to keep encoding cheap and responses small
	maxSize = 2048
	// maxContentLen is the version-40 binary capacity at low recovery
	maxContentLen = 2953
)

// RecoveryLevel controls how much of the code can be damaged or
// obscured while remaining scannable. Higher levels produce denser
// codes; use RecoveryHigh when overlaying a logo on the modules.
type RecoveryLevel int

const (
	RecoveryLow RecoveryLevel = iota
	RecoveryMedium
	RecoveryHigh
	RecoveryHighest
)

func (l RecoveryLevel) toUpstream() skipqrcode.RecoveryLevel {
	switch l {
	case RecoveryLow:
		return skipqrcode.Low
	case RecoveryHigh:
		return skipqrcode.High
	case RecoveryHighest:
		return skipqrcode.Highest
	default:
		return skipqrcode.Medium
	}
}

type config struct {
	size       int
	level      RecoveryLevel
	foreground color.Color
	background color.Color
	watermark  bool
	logo       []byte
}

// Option configures QR code generation.
type Option func(*config)

// WithSize sets the output image size in pixels. Non-positive values
// fall back to the default.
func WithSize(size int) Option {
	return func(c *config) { c.size = size }
}

// WithRecoveryLevel sets the error correction level.
func WithRecoveryLevel(level RecoveryLevel) Option {
	return func(c *config) { c.level = level }
}

// WithColors sets custom foreground and background colors.
func WithColors(foreground, background color.Color) Option {
	return func(c *config) {
		if foreground != nil {
			c.foreground = foreground
		}
		if background != nil {
			c.background = background
		}
	}
}

// WithWatermark stamps a wordmark strip along the bottom edge of the
// image. Callers decide whether to pass it based on the user's plan.
func WithWatermark() Option {
	return func(c *config) { c.watermark = true }
}

// Generate creates a QR code image in PNG format with the given content.
// Returns the image as a byte slice or an error if generation fails.
func Generate(content string, opts ...Option) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if len(content) > maxContentLen {
		return nil, ErrContentTooLong
	}

	cfg := config{
		size:       defaultSize,
		level:      RecoveryMedium,
		foreground: color.Black,
		background: color.White,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.size <= 0 {
		cfg.size = defaultSize
	}
	if cfg.size > maxSize {
		return nil, fmt.Errorf("%w: %d exceeds maximum %d", ErrInvalidSize, cfg.size, maxSize)
	}

	code, err := skipqrcode.New(content, cfg.level.toUpstream())
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerate, err)
	}
	code.ForegroundColor = cfg.foreground
	code.BackgroundColor = cfg.background

	png, err := code.PNG(cfg.size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerate, err)
	}

	if len(cfg.logo) > 0 {
		png, err = embedLogo(png, cfg.logo)
		if err != nil {
			if errors.Is(err, ErrInvalidLogo) {
				return nil, err
			}
			return nil, errors.Join(ErrFailedToGenerate, err)
		}
	}
	if cfg.watermark {
		png, err = stampWatermark(png)
		if err != nil {
			return nil, errors.Join(ErrFailedToGenerate, err)
		}
	}
	return png, nil
}

// GenerateBase64Image creates a base64 encoded string representation of a QR code
// image with the given content. Returns the base64 encoded string or an error if
// generation fails.
//
// Usage:
//
//	base64Image, err := GenerateBase64Image("https://example.com")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// And then use the base64Image string in an HTML template like this:
//
//	<img src="{{.QrCode}}">
func GenerateBase64Image(content string, opts ...Option) (string, error) {
	png, err := Generate(content, opts...)
	if err != nil {
		return "", err
	}
	base64Image := base64.StdEncoding.EncodeToString(png)
	return fmt.Sprintf("data:image/png;base64,%s", base64Image), nil
}
