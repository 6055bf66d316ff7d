// Package qrcode generates QR code images as raw PNG bytes or as a
// data-URI string that can be embedded directly into HTML pages.
//
// The package is a thin wrapper around github.com/skip2/go-qrcode that adds
// sensible defaults, input validation, and plan-aware presentation options
// (custom colors, an optional wordmark strip for free-plan output).
//
// # Architecture
//
// The core of the package lives in the Generate and GenerateBase64Image
// functions. Both delegate QR-code generation to the upstream library and
// post-process the result:
//
//   • Generate validates the input and returns a PNG image in a byte slice,
//     configured through functional options (size, recovery level, colors,
//     watermark).
//   • GenerateBase64Image builds upon Generate and returns a data-URI
//     (base64-encoded PNG) which can be used inside an <img> tag.
//
// The watermark is purely presentational: callers decide whether to pass
// WithWatermark based on the user's plan. This package knows nothing about
// plans or permissions.
//
// # Usage
//
//	import "github.com/qrforge/qrforge/pkg/qrcode"
//
//	// Create PNG bytes
//	img, err := qrcode.Generate("https://example.com",
//		qrcode.WithSize(512),
//		qrcode.WithRecoveryLevel(qrcode.RecoveryHigh),
//	)
//	if err != nil {
//		// handle error
//	}
//
//	// Create base64 data URI with the free-plan wordmark
//	dataURI, err := qrcode.GenerateBase64Image("https://example.com",
//		qrcode.WithWatermark(),
//	)
//	if err != nil {
//		// handle error
//	}
//
// # Error Handling
//
// The functions return well-defined sentinel errors:
//
//   • ErrEmptyContent     – the content argument was empty.
//   • ErrContentTooLong   – the content exceeds QR code capacity.
//   • ErrInvalidSize      – the requested size exceeds the maximum.
//   • ErrFailedToGenerate – the underlying library could not generate
//     the QR code.
//
// Wrap your error handling with errors.Is for robust comparisons.
package qrcode
